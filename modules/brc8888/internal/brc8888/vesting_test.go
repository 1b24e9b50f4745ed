package brc8888

import (
	"testing"
	"time"

	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
)

func TestVestingUnlockedAt(t *testing.T) {
	t0 := time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	schedule := VestingSchedule{
		Start:        t0,
		CliffDays:    90,
		DurationDays: 365,
		Amount:       uint128.From64(1_000_000),
	}

	assert.True(t, schedule.UnlockedAt(t0).IsZero())
	assert.True(t, schedule.UnlockedAt(t0.Add(8*day)).IsZero())
	assert.True(t, schedule.UnlockedAt(t0.Add(90*day-time.Second)).IsZero())
	assert.True(t, schedule.UnlockedAt(t0.Add(90*day)).IsZero(), "nothing elapsed at the cliff itself")

	// floor(1_000_000 * 1 / 365)
	assert.Equal(t, uint128.From64(2739), schedule.UnlockedAt(t0.Add(91*day)))
	// floor(1_000_000 * 182.5 / 365)
	assert.Equal(t, uint128.From64(500_000), schedule.UnlockedAt(t0.Add(90*day+365*day/2)))

	assert.Equal(t, schedule.Amount, schedule.UnlockedAt(t0.Add(455*day)))
	assert.Equal(t, schedule.Amount, schedule.UnlockedAt(t0.Add(10_000*day)))
}

func TestVestingLongCliff(t *testing.T) {
	t0 := time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	for _, cliffDays := range []uint32{200_000, 1 << 31} {
		schedule := VestingSchedule{
			Start:        t0,
			CliffDays:    cliffDays,
			DurationDays: 365,
			Amount:       uint128.From64(1_000_000),
		}
		assert.True(t, schedule.CliffEnd().After(t0))
		assert.True(t, schedule.UnlockedAt(t0.Add(8*day)).IsZero())
		assert.True(t, schedule.UnlockedAt(t0.Add(100_000*day)).IsZero())
		assert.True(t, schedule.UnlockedAt(t0.AddDate(500, 0, 0)).IsZero())
	}
}

func TestVestingMonotonic(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	schedule := VestingSchedule{
		Start:        t0,
		CliffDays:    3,
		DurationDays: 7,
		Amount:       uint128.From64(999_999_937),
	}

	prev := uint128.Zero
	for now := t0.Add(-time.Hour); now.Before(t0.Add(12 * 24 * time.Hour)); now = now.Add(37 * time.Minute) {
		unlocked := schedule.UnlockedAt(now)
		assert.True(t, unlocked.Cmp(prev) >= 0, "unlocked decreased at %s", now)
		assert.True(t, unlocked.Cmp(schedule.Amount) <= 0, "unlocked exceeds total at %s", now)
		prev = unlocked
	}
	assert.Equal(t, schedule.Amount, prev)
}

func TestVestingZeroDuration(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	schedule := VestingSchedule{Start: t0, CliffDays: 1, Amount: uint128.From64(10)}

	assert.True(t, schedule.UnlockedAt(t0.Add(23*time.Hour)).IsZero())
	assert.Equal(t, uint128.From64(10), schedule.UnlockedAt(t0.Add(24*time.Hour)))
}

func TestExemptEntryWithoutVesting(t *testing.T) {
	entry := ExemptEntry{Address: "bc1pfounder", Amount: uint128.From64(42)}
	assert.Equal(t, uint128.From64(42), entry.UnlockedAt(time.Time{}))
}
