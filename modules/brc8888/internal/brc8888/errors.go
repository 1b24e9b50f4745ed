package brc8888

import "github.com/cockroachdb/errors"

// ErrorKind is a rule-violation outcome. Every rejected operation carries
// exactly one ErrorKind in its error chain.
type ErrorKind string

func (e ErrorKind) Error() string {
	return string(e)
}

const (
	ErrDuplicateTicker          = ErrorKind("duplicate ticker")
	ErrDuplicateInscription     = ErrorKind("inscription already applied")
	ErrDeployNotFound           = ErrorKind("deploy not found")
	ErrSupplyExceeded           = ErrorKind("supply exceeded")
	ErrUserCapExceeded          = ErrorKind("user cap exceeded")
	ErrCooldownActive           = ErrorKind("cooldown active")
	ErrExemptAllocationExceeded = ErrorKind("exempt allocation exceeded")
	ErrLockActive               = ErrorKind("exempt mint locked")
	ErrVestingInsufficient      = ErrorKind("vesting insufficient")
	ErrInsufficientFee          = ErrorKind("insufficient fee")
	ErrNoValidPhase             = ErrorKind("no valid phase")
	ErrRefNotFound              = ErrorKind("ref not found")
	ErrStaleRef                 = ErrorKind("ref is not the lineage head")
	ErrTriggerRejected          = ErrorKind("trigger rejected")
	ErrFeeCheckFailed           = ErrorKind("fee check failed")
	ErrMalformedInput           = ErrorKind("malformed input")
)

// kinds is ordered from most to least specific, fee failures carry both
// ErrFeeCheckFailed and their cause.
var kinds = []ErrorKind{
	ErrDuplicateTicker,
	ErrDuplicateInscription,
	ErrDeployNotFound,
	ErrSupplyExceeded,
	ErrUserCapExceeded,
	ErrCooldownActive,
	ErrExemptAllocationExceeded,
	ErrLockActive,
	ErrVestingInsufficient,
	ErrInsufficientFee,
	ErrNoValidPhase,
	ErrRefNotFound,
	ErrStaleRef,
	ErrTriggerRejected,
	ErrMalformedInput,
	ErrFeeCheckFailed,
}

// KindOf returns the most specific ErrorKind in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ""
}

// feeCheckFailed marks a fee verification failure so that it matches both
// ErrFeeCheckFailed and its underlying cause.
func feeCheckFailed(err error) error {
	return errors.Mark(err, ErrFeeCheckFailed)
}

func malformed(format string, args ...any) error {
	return errors.Wrapf(ErrMalformedInput, format, args...)
}
