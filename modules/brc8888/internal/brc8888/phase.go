package brc8888

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
)

// Phase prices every unit minted while the ticker's cumulative minted
// supply is in [StartMinted, EndMinted).
type Phase struct {
	StartMinted uint128.Uint128
	EndMinted   uint128.Uint128
	PriceSats   uint128.Uint128
}

func (p Phase) Contains(minted uint128.Uint128) bool {
	return p.StartMinted.Cmp(minted) <= 0 && minted.Cmp(p.EndMinted) < 0
}

// ValidatePhases reports ErrNoValidPhase unless every phase is non-empty and
// the list is sorted by start without overlaps. Gaps are allowed here,
// CostOf rejects them when the minted counter reaches one.
func ValidatePhases(phases []Phase) error {
	for i, p := range phases {
		if p.EndMinted.Cmp(p.StartMinted) <= 0 {
			return errors.Wrapf(ErrNoValidPhase, "phase %d ends at %s, not after its start %s", i, p.EndMinted, p.StartMinted)
		}
		if i > 0 && phases[i-1].EndMinted.Cmp(p.StartMinted) > 0 {
			return errors.Wrapf(ErrNoValidPhase, "phase %d starting at %s overlaps or precedes phase %d", i, p.StartMinted, i-1)
		}
	}
	return nil
}

// PriceAt returns the unit price of the phase containing minted. ok is false
// when no phase covers it, a zero price with ok=true is a free phase.
func PriceAt(phases []Phase, minted uint128.Uint128) (price uint128.Uint128, ok bool) {
	if i := phaseIndex(phases, minted); i >= 0 {
		return phases[i].PriceSats, true
	}
	return uint128.Zero, false
}

func phaseIndex(phases []Phase, minted uint128.Uint128) int {
	for i, p := range phases {
		if p.Contains(minted) {
			return i
		}
	}
	return -1
}

// CostOf returns the exact price of minting qty units when minted units
// already exist, consuming each phase until its end before moving on.
func CostOf(phases []Phase, minted, qty uint128.Uint128) (uint128.Uint128, error) {
	if err := ValidatePhases(phases); err != nil {
		return uint128.Zero, errors.WithStack(err)
	}

	cost := uint128.Zero
	counter, remaining := minted, qty
	for !remaining.IsZero() {
		i := phaseIndex(phases, counter)
		if i < 0 {
			return uint128.Zero, errors.Wrapf(ErrNoValidPhase, "no phase covers minted supply %s", counter)
		}
		phase := phases[i]

		take := minAmount(remaining, phase.EndMinted.Sub(counter))
		part, err := checkedMul(take, phase.PriceSats)
		if err != nil {
			return uint128.Zero, errors.Wrapf(ErrMalformedInput, "phase %d cost of %s units overflows", i, take)
		}
		if cost, err = checkedAdd(cost, part); err != nil {
			return uint128.Zero, errors.Wrap(ErrMalformedInput, "phased cost overflows")
		}

		counter = counter.Add(take)
		remaining = remaining.Sub(take)
	}
	return cost, nil
}
