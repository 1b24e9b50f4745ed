package brc8888

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
)

// TickState is the mutable ledger of one ticker.
type TickState struct {
	Balances      map[string]uint128.Uint128
	MintedBy      map[string]uint128.Uint128
	LastMintBlock map[string]uint64
	TotalMinted   uint128.Uint128
}

func newTickState() *TickState {
	return &TickState{
		Balances:      make(map[string]uint128.Uint128),
		MintedBy:      make(map[string]uint128.Uint128),
		LastMintBlock: make(map[string]uint64),
		TotalMinted:   uint128.Zero,
	}
}

func (s *TickState) clone() *TickState {
	return &TickState{
		Balances:      cloneMap(s.Balances),
		MintedBy:      cloneMap(s.MintedBy),
		LastMintBlock: cloneMap(s.LastMintBlock),
		TotalMinted:   s.TotalMinted,
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// LineageEntry is one recorded evolve of a ticker.
type LineageEntry struct {
	InscriptionId string `json:"inscription_id"`
	Ref           string `json:"ref"`
	MerkleRoot    string `json:"merkle_root"`
	ProofURI      string `json:"proof_uri,omitempty"`
	TxHash        string `json:"tx_hash,omitempty"`
	BlockHeight   uint64 `json:"block_height"`
}

// Ledger holds every registered deploy and the per-ticker state derived from
// applied operations. It is owned by a single Validator.
type Ledger struct {
	deploys      map[string]*Deploy // by inscription id
	deployByTick map[string]string
	states       map[string]*TickState
	lineage      map[string][]LineageEntry
	evolves      map[string]string // evolve inscription id -> tick
	applied      map[string]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		deploys:      make(map[string]*Deploy),
		deployByTick: make(map[string]string),
		states:       make(map[string]*TickState),
		lineage:      make(map[string][]LineageEntry),
		evolves:      make(map[string]string),
		applied:      make(map[string]struct{}),
	}
}

// Clone returns a deep copy. Deploys are shared since they are immutable.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		deploys:      cloneMap(l.deploys),
		deployByTick: cloneMap(l.deployByTick),
		states:       make(map[string]*TickState, len(l.states)),
		lineage:      make(map[string][]LineageEntry, len(l.lineage)),
		evolves:      cloneMap(l.evolves),
		applied:      cloneMap(l.applied),
	}
	for tick, state := range l.states {
		c.states[tick] = state.clone()
	}
	for tick, entries := range l.lineage {
		c.lineage[tick] = slices.Clone(entries)
	}
	return c
}

func (l *Ledger) Deploy(inscriptionId string) (*Deploy, bool) {
	d, ok := l.deploys[inscriptionId]
	return d, ok
}

func (l *Ledger) DeployByTick(tick string) (*Deploy, bool) {
	id, ok := l.deployByTick[tick]
	if !ok {
		return nil, false
	}
	return l.Deploy(id)
}

// Tickers returns registered tickers in sorted order.
func (l *Ledger) Tickers() []string {
	ticks := lo.Keys(l.deployByTick)
	slices.Sort(ticks)
	return ticks
}

func (l *Ledger) IsApplied(inscriptionId string) bool {
	_, ok := l.applied[inscriptionId]
	return ok
}

func (l *Ledger) state(tick string) *TickState {
	if s, ok := l.states[tick]; ok {
		return s
	}
	return nil
}

func (l *Ledger) Balance(tick, address string) uint128.Uint128 {
	if s := l.state(tick); s != nil {
		return s.Balances[address]
	}
	return uint128.Zero
}

func (l *Ledger) MintedBy(tick, address string) uint128.Uint128 {
	if s := l.state(tick); s != nil {
		return s.MintedBy[address]
	}
	return uint128.Zero
}

// LastMintBlock returns the height of address's last mint of tick. ok is false
// if address never minted tick.
func (l *Ledger) LastMintBlock(tick, address string) (height uint64, ok bool) {
	if s := l.state(tick); s != nil {
		height, ok = s.LastMintBlock[address]
	}
	return height, ok
}

func (l *Ledger) TotalMinted(tick string) uint128.Uint128 {
	if s := l.state(tick); s != nil {
		return s.TotalMinted
	}
	return uint128.Zero
}

// Holders returns a copy of tick's non-zero balances.
func (l *Ledger) Holders(tick string) map[string]uint128.Uint128 {
	s := l.state(tick)
	if s == nil {
		return map[string]uint128.Uint128{}
	}
	return lo.PickBy(s.Balances, func(_ string, balance uint128.Uint128) bool {
		return !balance.IsZero()
	})
}

// Lineage returns tick's recorded evolves, oldest first.
func (l *Ledger) Lineage(tick string) []LineageEntry {
	return slices.Clone(l.lineage[tick])
}

// LineageHead returns the inscription id the next evolve of tick must reference:
// the latest evolve, or the deploy when the ticker never evolved.
func (l *Ledger) LineageHead(tick string) (string, bool) {
	if entries := l.lineage[tick]; len(entries) > 0 {
		return entries[len(entries)-1].InscriptionId, true
	}
	id, ok := l.deployByTick[tick]
	return id, ok
}

// RefTick returns the ticker of a deploy or evolve inscription.
func (l *Ledger) RefTick(inscriptionId string) (string, bool) {
	if d, ok := l.deploys[inscriptionId]; ok {
		return d.Tick, true
	}
	tick, ok := l.evolves[inscriptionId]
	return tick, ok
}

func (l *Ledger) registerDeploy(d *Deploy) {
	l.deploys[d.InscriptionId] = d
	l.deployByTick[d.Tick] = d.InscriptionId
	l.states[d.Tick] = newTickState()
	l.applied[d.InscriptionId] = struct{}{}
}

func (l *Ledger) recordEvolve(tick string, entry LineageEntry) {
	l.lineage[tick] = append(l.lineage[tick], entry)
	l.evolves[entry.InscriptionId] = tick
	l.applied[entry.InscriptionId] = struct{}{}
}

// commitMint credits qty of tick to minter. Every new value is computed before
// anything is written, so an overflow leaves the ledger untouched.
func (l *Ledger) commitMint(inscriptionId, tick, minter string, qty uint128.Uint128, height uint64) error {
	s := l.state(tick)
	if s == nil {
		return errors.Wrapf(ErrDeployNotFound, "no state for tick %q", tick)
	}
	balance, err := checkedAdd(s.Balances[minter], qty)
	if err != nil {
		return errors.Wrap(err, "balance")
	}
	minted, err := checkedAdd(s.MintedBy[minter], qty)
	if err != nil {
		return errors.Wrap(err, "minted by address")
	}
	total, err := checkedAdd(s.TotalMinted, qty)
	if err != nil {
		return errors.Wrap(err, "total minted")
	}

	s.Balances[minter] = balance
	s.MintedBy[minter] = minted
	s.TotalMinted = total
	s.LastMintBlock[minter] = height
	l.applied[inscriptionId] = struct{}{}
	return nil
}

// merge moves the entries of other into l. The ledgers must cover disjoint
// tickers and inscriptions, as the shards of ReplaySharded do.
func (l *Ledger) merge(other *Ledger) {
	for id, d := range other.deploys {
		l.deploys[id] = d
	}
	for tick, id := range other.deployByTick {
		l.deployByTick[tick] = id
	}
	for tick, s := range other.states {
		l.states[tick] = s
	}
	for tick, entries := range other.lineage {
		l.lineage[tick] = entries
	}
	for id, tick := range other.evolves {
		l.evolves[id] = tick
	}
	for id := range other.applied {
		l.applied[id] = struct{}{}
	}
}
