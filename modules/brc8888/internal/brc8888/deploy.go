package brc8888

import (
	"time"

	"github.com/gaze-network/uint128"
)

// Deploy is a registered token. Immutable once registered.
type Deploy struct {
	InscriptionId string
	Tick          string
	Genesis       bool
	Supply        uint128.Uint128
	Rules         MintRules
	Fees          FeeConfig

	Deployer    string
	TxHash      string
	BlockHeight uint64
	Timestamp   time.Time

	// Set by reduced-payload intake, derived from the deploy transaction outputs.
	DerivedReserve  string
	DerivedTreasury string

	// Content is the deploy payload as inscribed, kept to rebuild the deploy from a snapshot.
	Content []byte
}

type MintRules struct {
	UserCap        uint128.Uint128 // zero is unlimited
	CooldownBlocks uint64
	Phases         []Phase
	ExemptAddrs    []ExemptEntry
}

// ExemptEntry is an address minting outside user caps and cooldowns, bound by
// its own allocation, vesting and lock instead.
type ExemptEntry struct {
	Address string
	Role    string
	Amount  uint128.Uint128
	Vesting *VestingSchedule

	// LockUntilPublicMinted blocks the entry until total minted supply reaches it, zero disables the lock.
	LockUntilPublicMinted uint128.Uint128
}

// UnlockedAt returns the part of the allocation that may be minted at now.
func (e ExemptEntry) UnlockedAt(now time.Time) uint128.Uint128 {
	if e.Vesting == nil {
		return e.Amount
	}
	return e.Vesting.UnlockedAt(now)
}

// Exempt returns the exempt entry for address, matched exactly.
func (d *Deploy) Exempt(address string) (ExemptEntry, bool) {
	for _, entry := range d.Rules.ExemptAddrs {
		if entry.Address == address {
			return entry, true
		}
	}
	return ExemptEntry{}, false
}

// MintFees resolves the fee block a mint is charged under: the mint's own
// block when present, otherwise the deploy's. Derived addresses of a
// reduced-payload deploy take precedence over the payload addresses.
func (d *Deploy) MintFees(override *FeeConfig) FeeConfig {
	fees := d.Fees
	if override != nil {
		fees = *override
	}
	if d.DerivedReserve != "" {
		fees.ReserveAddress = d.DerivedReserve
	}
	if d.DerivedTreasury != "" {
		fees.ProtocolFeeAddress = d.DerivedTreasury
	}
	return fees
}
