package brc8888

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/uint128"
)

const (
	// DefaultProtocolTreasury receives protocol fees when a fee block names no protocol address.
	DefaultProtocolTreasury = "bc1puez48076vx6d3lnxkgnwzahsmpvmklfcnulcq0jgu6u4dl2yhmpsjr9kq0"

	// DefaultGenesisTick is the only ticker allowed to deploy as genesis.
	DefaultGenesisTick = "UNQ"
)

// Config holds the protocol constants a Validator is built with.
type Config struct {
	// GenesisTick is the only ticker whose deploy may claim genesis. Empty disables genesis deploys.
	GenesisTick string

	// ProtocolTreasury is the protocol fee address used when a fee block names none.
	ProtocolTreasury string

	// ReducedPayload sources deploy reserve and treasury addresses from the
	// deploy transaction through an AddressResolver.
	ReducedPayload bool
}

func DefaultConfig() Config {
	return Config{
		GenesisTick:      DefaultGenesisTick,
		ProtocolTreasury: DefaultProtocolTreasury,
	}
}

// Validator applies operations in log order to its Ledger. It performs no I/O
// other than through the injected AddressResolver and is not safe for
// concurrent use.
type Validator struct {
	config   Config
	ledger   *Ledger
	resolver AddressResolver
	triggers TriggerPolicy
}

type Option func(*Validator)

// WithLedger starts the validator from an existing ledger, e.g. a restored checkpoint.
func WithLedger(ledger *Ledger) Option {
	return func(v *Validator) {
		v.ledger = ledger
	}
}

func WithAddressResolver(resolver AddressResolver) Option {
	return func(v *Validator) {
		v.resolver = resolver
	}
}

func WithTriggerPolicy(policy TriggerPolicy) Option {
	return func(v *Validator) {
		v.triggers = policy
	}
}

func NewValidator(config Config, opts ...Option) *Validator {
	v := &Validator{
		config:   config,
		ledger:   NewLedger(),
		triggers: AllowAllTriggers{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Validator) Config() Config {
	return v.config
}

func (v *Validator) Ledger() *Ledger {
	return v.ledger
}

// Apply parses op's payload and validates it. Rule violations are reported
// in the Result. The returned error is non-nil only when a collaborator
// failed and the operation could not be judged, the caller should retry it.
func (v *Validator) Apply(ctx context.Context, op *Operation) (Result, error) {
	payload, err := ParsePayload(op.Content, op.Kind)
	if err != nil {
		return rejected(op.Kind, op.Tick(), err), nil
	}
	switch payload.Op {
	case OperationDeploy:
		return v.ValidateDeploy(ctx, op, payload.Deploy)
	case OperationMint:
		return v.ValidateMint(op, payload.Mint), nil
	case OperationEvolve:
		return v.ValidateEvolve(op, payload.Evolve), nil
	default:
		return rejected(payload.Op, payload.Tick, malformed("unsupported operation %q", payload.Op)), nil
	}
}

func newDeploy(p *DeployPayload, op *Operation) *Deploy {
	return &Deploy{
		InscriptionId: op.InscriptionId,
		Tick:          p.Tick,
		Genesis:       p.Genesis,
		Supply:        p.Supply,
		Rules:         p.Rules,
		Fees:          p.Fees,
		Deployer:      op.Inscriber,
		TxHash:        op.Tx.TxHash,
		BlockHeight:   op.BlockHeight,
		Timestamp:     op.Timestamp,
		Content:       op.Content,
	}
}

// ValidateDeploy registers a new ticker when the deploy is admissible.
func (v *Validator) ValidateDeploy(ctx context.Context, op *Operation, p *DeployPayload) (Result, error) {
	tick := p.Tick
	if op.InscriptionId == "" {
		return rejected(OperationDeploy, tick, malformed("deploy has no inscription id")), nil
	}
	if existing, ok := v.ledger.DeployByTick(tick); ok {
		return rejected(OperationDeploy, tick, errors.Wrapf(ErrDuplicateTicker, "tick %q already deployed by %s", tick, existing.InscriptionId)), nil
	}
	if p.Genesis && (v.config.GenesisTick == "" || tick != v.config.GenesisTick) {
		return rejected(OperationDeploy, tick, malformed("tick %q cannot be deployed as genesis", tick)), nil
	}
	if v.ledger.IsApplied(op.InscriptionId) {
		return rejected(OperationDeploy, tick, errors.Wrapf(ErrDuplicateInscription, "inscription %s", op.InscriptionId)), nil
	}

	deploy := newDeploy(p, op)
	if v.config.ReducedPayload {
		if v.resolver == nil {
			return Result{}, errors.Wrap(errs.InvalidArgument, "reduced payload intake requires an address resolver")
		}
		addresses, err := v.resolver.ResolveAddresses(ctx, op.Tx.TxHash)
		if err != nil {
			if errors.Is(err, errs.NotFound) {
				return rejected(OperationDeploy, tick, malformed("failed to read reserve address from deploy tx %s", op.Tx.TxHash)), nil
			}
			return Result{}, errors.Wrapf(err, "failed to resolve addresses of deploy tx %s", op.Tx.TxHash)
		}
		if addresses.Reserve == "" {
			return rejected(OperationDeploy, tick, malformed("failed to read reserve address from deploy tx %s", op.Tx.TxHash)), nil
		}
		deploy.DerivedReserve = addresses.Reserve
		deploy.DerivedTreasury = firstNonEmpty(addresses.Treasury, v.config.ProtocolTreasury)
	}

	fees, err := VerifyDeployFee(op.Tx, deploy.MintFees(nil), deploy.Genesis, v.config.ProtocolTreasury)
	if err != nil {
		return rejected(OperationDeploy, tick, feeCheckFailed(err)), nil
	}

	v.ledger.registerDeploy(deploy)

	result := accepted(OperationDeploy, tick, fmt.Sprintf("deploy %s registered", tick))
	result.Deploy = &DeployReceipt{
		Tick:            tick,
		Genesis:         deploy.Genesis,
		Supply:          deploy.Supply,
		Fees:            fees,
		DerivedReserve:  deploy.DerivedReserve,
		DerivedTreasury: deploy.DerivedTreasury,
	}
	return result, nil
}

// ValidateMint credits the minter when every rule passes. A rejected mint
// leaves the ledger untouched.
func (v *Validator) ValidateMint(op *Operation, p *MintPayload) Result {
	tick, qty := p.Tick, p.Qty
	if op.InscriptionId == "" {
		return rejected(OperationMint, tick, malformed("mint has no inscription id"))
	}
	if v.ledger.IsApplied(op.InscriptionId) {
		return rejected(OperationMint, tick, errors.Wrapf(ErrDuplicateInscription, "inscription %s", op.InscriptionId))
	}
	deploy, err := v.mintTarget(p)
	if err != nil {
		return rejected(OperationMint, tick, err)
	}

	total := v.ledger.TotalMinted(tick)
	newTotal, err := checkedAdd(total, qty)
	if err != nil || newTotal.Cmp(deploy.Supply) > 0 {
		return rejected(OperationMint, tick, errors.Wrapf(ErrSupplyExceeded, "minting %s would exceed supply %s, %s already minted", qty, deploy.Supply, total))
	}

	minter := firstNonEmpty(p.Minter, op.Inscriber)
	if minter == "" {
		return rejected(OperationMint, tick, malformed("mint has no minter"))
	}
	minted := v.ledger.MintedBy(tick, minter)
	newMinted, err := checkedAdd(minted, qty)
	if err != nil {
		return rejected(OperationMint, tick, errors.Wrapf(ErrSupplyExceeded, "minted amount of %s overflows", minter))
	}

	entry, exempt := deploy.Exempt(minter)
	if exempt {
		if err := v.checkExempt(op, entry, total, minted, newMinted); err != nil {
			return rejected(OperationMint, tick, err)
		}
	} else {
		if err := v.checkPublic(op, deploy, minter, newMinted); err != nil {
			return rejected(OperationMint, tick, err)
		}
	}

	fees, err := VerifyMintFee(op.Tx, deploy.MintFees(p.Fees), deploy.Rules.Phases, qty, total, v.config.ProtocolTreasury)
	if err != nil {
		return rejected(OperationMint, tick, feeCheckFailed(err))
	}

	if err := v.ledger.commitMint(op.InscriptionId, tick, minter, qty, op.BlockHeight); err != nil {
		return rejected(OperationMint, tick, errors.Mark(err, ErrSupplyExceeded))
	}

	result := accepted(OperationMint, tick, fmt.Sprintf("mint %s %s successful", qty, tick))
	result.Mint = &MintReceipt{
		Tick:        tick,
		Minter:      minter,
		Qty:         qty,
		Exempt:      exempt,
		TotalMinted: v.ledger.TotalMinted(tick),
		Fees:        fees,
	}
	return result
}

// mintTarget resolves the deploy a mint draws from: the referenced deploy
// inscription when the payload names one, the tick's deploy otherwise.
func (v *Validator) mintTarget(p *MintPayload) (*Deploy, error) {
	if p.DeployInscriptionId == "" {
		deploy, ok := v.ledger.DeployByTick(p.Tick)
		if !ok {
			return nil, errors.Wrapf(ErrDeployNotFound, "tick %q", p.Tick)
		}
		return deploy, nil
	}
	deploy, ok := v.ledger.Deploy(p.DeployInscriptionId)
	if !ok {
		return nil, errors.Wrapf(ErrDeployNotFound, "deploy inscription %s", p.DeployInscriptionId)
	}
	if deploy.Tick != p.Tick {
		return nil, malformed("mint tick %q does not match tick %q of deploy %s", p.Tick, deploy.Tick, p.DeployInscriptionId)
	}
	return deploy, nil
}

func (v *Validator) checkExempt(op *Operation, entry ExemptEntry, total, minted, newMinted uint128.Uint128) error {
	if newMinted.Cmp(entry.Amount) > 0 {
		return errors.Wrapf(ErrExemptAllocationExceeded, "%s would mint %s of allocation %s", entry.Address, newMinted, entry.Amount)
	}
	if entry.Vesting != nil {
		if op.Timestamp.IsZero() {
			return malformed("vesting check requires the operation timestamp")
		}
		unlocked := entry.UnlockedAt(op.Timestamp)
		if newMinted.Cmp(unlocked) > 0 {
			return errors.Wrapf(ErrVestingInsufficient, "%s unlocked at %s, %s already minted", unlocked, op.Timestamp.UTC().Format("2006-01-02T15:04:05Z"), minted)
		}
	}
	if lock := entry.LockUntilPublicMinted; !lock.IsZero() && total.Cmp(lock) < 0 {
		return errors.Wrapf(ErrLockActive, "exempt mint locked until %s minted, %s minted", lock, total)
	}
	return nil
}

func (v *Validator) checkPublic(op *Operation, deploy *Deploy, minter string, newMinted uint128.Uint128) error {
	if userCap := deploy.Rules.UserCap; !userCap.IsZero() && newMinted.Cmp(userCap) > 0 {
		return errors.Wrapf(ErrUserCapExceeded, "%s would hold %s minted, cap is %s", minter, newMinted, userCap)
	}
	if cooldown := deploy.Rules.CooldownBlocks; cooldown > 0 {
		last, minted := v.ledger.LastMintBlock(deploy.Tick, minter)
		if minted && last+cooldown > op.BlockHeight {
			return errors.Wrapf(ErrCooldownActive, "%s last minted at block %d, next mint allowed at block %d", minter, last, last+cooldown)
		}
	}
	return nil
}

// ValidateEvolve appends a new state reference to the ticker's lineage.
func (v *Validator) ValidateEvolve(op *Operation, p *EvolvePayload) Result {
	tick := p.Tick
	if op.InscriptionId == "" {
		return rejected(OperationEvolve, tick, malformed("evolve has no inscription id"))
	}
	if v.ledger.IsApplied(op.InscriptionId) {
		return rejected(OperationEvolve, tick, errors.Wrapf(ErrDuplicateInscription, "inscription %s", op.InscriptionId))
	}
	refTick, ok := v.ledger.RefTick(p.Ref)
	if !ok || refTick != tick {
		return rejected(OperationEvolve, tick, errors.Wrapf(ErrRefNotFound, "%s is not a deploy or evolve of %q", p.Ref, tick))
	}
	if head, _ := v.ledger.LineageHead(tick); head != p.Ref {
		return rejected(OperationEvolve, tick, errors.Wrapf(ErrStaleRef, "ref %s, lineage head is %s", p.Ref, head))
	}

	lineage := v.ledger.Lineage(tick)
	if err := v.triggers.Allow(p.Trigger, lineage); err != nil {
		return rejected(OperationEvolve, tick, errors.Wrapf(errors.Mark(err, ErrTriggerRejected), "trigger %q", p.Trigger.Type))
	}

	fees, err := VerifyEvolveFee(op.Tx, p.Fees, v.config.ProtocolTreasury)
	if err != nil {
		return rejected(OperationEvolve, tick, feeCheckFailed(err))
	}

	v.ledger.recordEvolve(tick, LineageEntry{
		InscriptionId: op.InscriptionId,
		Ref:           p.Ref,
		MerkleRoot:    p.MerkleRoot,
		ProofURI:      p.ProofURI,
		TxHash:        op.Tx.TxHash,
		BlockHeight:   op.BlockHeight,
	})

	result := accepted(OperationEvolve, tick, fmt.Sprintf("evolve %s recorded", tick))
	result.Evolve = &EvolveReceipt{
		Tick:       tick,
		Ref:        p.Ref,
		MerkleRoot: p.MerkleRoot,
		Depth:      len(lineage) + 1,
		Fees:       fees,
	}
	return result
}
