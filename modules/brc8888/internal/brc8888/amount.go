package brc8888

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/uint128"
	"github.com/shopspring/decimal"
)

// MaxPercent is the upper bound of every percentage field.
const MaxPercent = 100

var bigHundred = big.NewInt(MaxPercent)

// checkedAdd returns a+b or errs.OverflowUint128.
func checkedAdd(a, b uint128.Uint128) (uint128.Uint128, error) {
	sum, overflow := a.AddOverflow(b)
	if overflow {
		return uint128.Uint128{}, errors.WithStack(errs.OverflowUint128)
	}
	return sum, nil
}

// checkedMul returns a*b or errs.OverflowUint128.
func checkedMul(a, b uint128.Uint128) (uint128.Uint128, error) {
	product, overflow := a.MulOverflow(b)
	if overflow {
		return uint128.Uint128{}, errors.WithStack(errs.OverflowUint128)
	}
	return product, nil
}

func minAmount(a, b uint128.Uint128) uint128.Uint128 {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// PercentOf returns floor(amount * percent / 100). The result never exceeds
// amount for percent <= 100, so it always fits in 128 bits.
func PercentOf(amount uint128.Uint128, percent uint8) uint128.Uint128 {
	if percent == 0 || amount.IsZero() {
		return uint128.Zero
	}
	share := new(big.Int).Mul(amount.Big(), big.NewInt(int64(percent)))
	share.Quo(share, bigHundred)
	result, err := uint128.FromBig(share)
	if err != nil {
		// unreachable for percent <= 100
		return uint128.Max
	}
	return result
}

// maxAmountDigits is the number of decimal digits of the largest uint128.
const maxAmountDigits = 39

// ParseAmount parses a non-negative integer written in decimal notation.
// Fractional values, exponents that leave a fraction, and values larger
// than 128 bits are rejected.
func ParseAmount(s string) (uint128.Uint128, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uint128.Zero, errors.Wrap(errs.InvalidArgument, "empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return uint128.Zero, errors.Wrapf(errs.InvalidArgument, "invalid amount %q", s)
	}
	if d.IsNegative() {
		return uint128.Zero, errors.Wrapf(errs.InvalidArgument, "negative amount %q", s)
	}
	if d.IsZero() {
		return uint128.Zero, nil
	}

	// bound the exponent before anything scales the coefficient by 10^exp
	exp, digits := int(d.Exponent()), d.NumDigits()
	if exp > 0 && digits+exp > maxAmountDigits {
		return uint128.Zero, errors.Wrapf(errs.OverflowUint128, "amount %q", s)
	}
	if exp < 0 && -exp > digits {
		return uint128.Zero, errors.Wrapf(errs.InvalidArgument, "fractional amount %q", s)
	}
	if !d.Equal(d.Truncate(0)) {
		return uint128.Zero, errors.Wrapf(errs.InvalidArgument, "fractional amount %q", s)
	}
	u, err := uint128.FromBig(d.BigInt())
	if err != nil {
		return uint128.Zero, errors.Wrapf(errs.OverflowUint128, "amount %q", s)
	}
	return u, nil
}

// Numeric is a JSON value written either as a number or as a decimal string.
// Payload authors use both forms ("supply": "21000000", "price_sats": 2100).
type Numeric string

func (n *Numeric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.WithStack(err)
		}
		*n = Numeric(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return errors.Wrapf(errs.InvalidArgument, "expected number or numeric string, got %s", data)
	}
	*n = Numeric(num.String())
	return nil
}

func (n Numeric) IsSet() bool {
	return n != ""
}

// Amount parses n, an unset value is zero.
func (n Numeric) Amount() (uint128.Uint128, error) {
	if !n.IsSet() {
		return uint128.Zero, nil
	}
	return ParseAmount(string(n))
}

// Uint64 parses n as an amount that must fit in 64 bits.
func (n Numeric) Uint64() (uint64, error) {
	amount, err := n.Amount()
	if err != nil {
		return 0, err
	}
	if amount.Hi != 0 {
		return 0, errors.Wrapf(errs.OverflowUint64, "value %q", string(n))
	}
	return amount.Lo, nil
}

// Percent parses n as an integer percentage in [0, 100].
func (n Numeric) Percent() (uint8, error) {
	v, err := n.Uint64()
	if err != nil {
		return 0, err
	}
	if v > MaxPercent {
		return 0, errors.Wrapf(errs.InvalidArgument, "percent %d out of range [0, %d]", v, MaxPercent)
	}
	return uint8(v), nil
}
