package brc8888

import (
	"math/big"
	"time"

	"github.com/gaze-network/uint128"
)

const secondsPerDay = 24 * 60 * 60

// VestingSchedule releases Amount linearly over DurationDays once CliffDays
// have passed since Start.
type VestingSchedule struct {
	Start        time.Time
	CliffDays    uint32
	DurationDays uint32
	Amount       uint128.Uint128

	// carried from the payload, unlocking is always continuous
	Type         string
	UnlockPeriod string
}

// CliffEnd is the first instant at which anything is unlocked.
func (v VestingSchedule) CliffEnd() time.Time {
	return time.Unix(v.cliffEndUnix(), 0).UTC()
}

// cliffEndUnix stays in int64 seconds, a time.Duration overflows past ~292 years.
func (v VestingSchedule) cliffEndUnix() int64 {
	return v.Start.Unix() + int64(v.CliffDays)*secondsPerDay
}

// UnlockedAt returns floor(Amount * min(1, elapsed/duration)) where elapsed is
// measured in whole seconds from the cliff end. Block timestamps have second
// precision so every indexer computes the same fraction.
func (v VestingSchedule) UnlockedAt(now time.Time) uint128.Uint128 {
	elapsed := now.Unix() - v.cliffEndUnix()
	if elapsed < 0 {
		return uint128.Zero
	}
	duration := int64(v.DurationDays) * secondsPerDay
	if elapsed >= duration {
		return v.Amount
	}

	unlocked := new(big.Int).Mul(v.Amount.Big(), big.NewInt(elapsed))
	unlocked.Quo(unlocked, big.NewInt(duration))
	result, err := uint128.FromBig(unlocked)
	if err != nil {
		return v.Amount
	}
	return result
}
