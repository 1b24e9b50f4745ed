package brc8888

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
)

// LedgerSnapshot is the serialisable form of a Ledger. Amounts are decimal
// strings and map keys are sorted by encoding/json, so equal ledgers always
// encode to identical bytes.
type LedgerSnapshot struct {
	Deploys []DeploySnapshot             `json:"deploys"`
	Ticks   map[string]TickStateSnapshot `json:"ticks"`
	Lineage map[string][]LineageEntry    `json:"lineage,omitempty"`
	Applied []string                     `json:"applied"`
}

type DeploySnapshot struct {
	InscriptionId   string          `json:"inscription_id"`
	Deployer        string          `json:"deployer"`
	TxHash          string          `json:"tx_hash,omitempty"`
	BlockHeight     uint64          `json:"block_height"`
	Timestamp       int64           `json:"timestamp"`
	DerivedReserve  string          `json:"_derived_reserve,omitempty"`
	DerivedTreasury string          `json:"_derived_treasury,omitempty"`
	Content         json.RawMessage `json:"content"`
}

type TickStateSnapshot struct {
	Balances      map[string]string `json:"balances"`
	MintedBy      map[string]string `json:"minted_by"`
	LastMintBlock map[string]uint64 `json:"last_mint_block"`
	TotalMinted   string            `json:"total_minted"`
}

// Snapshot captures the full ledger.
func (l *Ledger) Snapshot() *LedgerSnapshot {
	snapshot := &LedgerSnapshot{
		Deploys: make([]DeploySnapshot, 0, len(l.deploys)),
		Ticks:   make(map[string]TickStateSnapshot, len(l.states)),
		Lineage: make(map[string][]LineageEntry, len(l.lineage)),
		Applied: lo.Keys(l.applied),
	}
	slices.Sort(snapshot.Applied)

	for _, tick := range l.Tickers() {
		d, _ := l.DeployByTick(tick)
		snapshot.Deploys = append(snapshot.Deploys, DeploySnapshot{
			InscriptionId:   d.InscriptionId,
			Deployer:        d.Deployer,
			TxHash:          d.TxHash,
			BlockHeight:     d.BlockHeight,
			Timestamp:       lo.Ternary(d.Timestamp.IsZero(), 0, d.Timestamp.Unix()),
			DerivedReserve:  d.DerivedReserve,
			DerivedTreasury: d.DerivedTreasury,
			Content:         d.Content,
		})
	}
	for tick, s := range l.states {
		snapshot.Ticks[tick] = TickStateSnapshot{
			Balances:      amountsToStrings(s.Balances),
			MintedBy:      amountsToStrings(s.MintedBy),
			LastMintBlock: cloneMap(s.LastMintBlock),
			TotalMinted:   s.TotalMinted.String(),
		}
	}
	for tick, entries := range l.lineage {
		snapshot.Lineage[tick] = slices.Clone(entries)
	}
	return snapshot
}

// RestoreLedger rebuilds a Ledger from a snapshot.
func RestoreLedger(snapshot *LedgerSnapshot) (*Ledger, error) {
	l := NewLedger()
	if snapshot == nil {
		return l, nil
	}

	for _, ds := range snapshot.Deploys {
		payload, err := ParsePayload(ds.Content, OperationDeploy)
		if err != nil {
			return nil, errors.Wrapf(err, "deploy %s", ds.InscriptionId)
		}
		d := newDeploy(payload.Deploy, &Operation{
			InscriptionId: ds.InscriptionId,
			Inscriber:     ds.Deployer,
			BlockHeight:   ds.BlockHeight,
			Timestamp:     lo.Ternary(ds.Timestamp == 0, time.Time{}, time.Unix(ds.Timestamp, 0).UTC()),
			Tx:            TxView{TxHash: ds.TxHash},
			Content:       ds.Content,
		})
		d.DerivedReserve = ds.DerivedReserve
		d.DerivedTreasury = ds.DerivedTreasury
		l.registerDeploy(d)
	}

	for tick, ts := range snapshot.Ticks {
		s, ok := l.states[tick]
		if !ok {
			return nil, errors.Wrapf(ErrDeployNotFound, "state for unknown tick %q", tick)
		}
		var err error
		if s.Balances, err = stringsToAmounts(ts.Balances); err != nil {
			return nil, errors.Wrapf(err, "balances of %q", tick)
		}
		if s.MintedBy, err = stringsToAmounts(ts.MintedBy); err != nil {
			return nil, errors.Wrapf(err, "minted_by of %q", tick)
		}
		if s.TotalMinted, err = ParseAmount(ts.TotalMinted); err != nil {
			return nil, errors.Wrapf(err, "total_minted of %q", tick)
		}
		if ts.LastMintBlock != nil {
			s.LastMintBlock = cloneMap(ts.LastMintBlock)
		}
	}

	for tick, entries := range snapshot.Lineage {
		for _, entry := range entries {
			l.recordEvolve(tick, entry)
		}
	}
	for _, id := range snapshot.Applied {
		l.applied[id] = struct{}{}
	}
	return l, nil
}

func amountsToStrings(m map[string]uint128.Uint128) map[string]string {
	return lo.MapValues(m, func(v uint128.Uint128, _ string) string {
		return v.String()
	})
}

func stringsToAmounts(m map[string]string) (map[string]uint128.Uint128, error) {
	out := make(map[string]uint128.Uint128, len(m))
	for k, v := range m {
		amount, err := ParseAmount(v)
		if err != nil {
			return nil, errors.Wrapf(err, "address %s", k)
		}
		out[k] = amount
	}
	return out, nil
}
