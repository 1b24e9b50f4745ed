package brc8888

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/samber/lo"
)

var supportedProtocols = []string{"brc-8888", "brc8888-1"}

var merkleRootPattern = regexp.MustCompile(`^sha256:[0-9a-f]{64}$`)

type rawFees struct {
	DeployCreationFeeSats Numeric `json:"deploy_creation_fee_sats"`
	ProtocolFeePercent    Numeric `json:"protocol_fee_percent"`
	CreatorFeeAddress     string  `json:"creator_fee_address"`
	FeeAddress            string  `json:"fee_address"` // legacy name of creator_fee_address, the evolve fee address
	ProtocolFeeAddress    string  `json:"protocol_fee_address"`
	ReserveAddress        string  `json:"reserve_address"`
	FeeType               string  `json:"fee_type"`
	FeeScope              string  `json:"fee_scope"`
}

type rawPhase struct {
	StartMinted Numeric `json:"start_minted"`
	EndMinted   Numeric `json:"end_minted"`
	PriceSats   Numeric `json:"price_sats"`
}

type rawVesting struct {
	Type         string          `json:"type"`
	Start        json.RawMessage `json:"start"`
	CliffDays    Numeric         `json:"cliff_days"`
	DurationDays Numeric         `json:"duration_days"`
	Amount       Numeric         `json:"amount"`
	UnlockPeriod string          `json:"unlock_period"`
}

type rawExempt struct {
	Address        string      `json:"address"`
	Role           string      `json:"role"`
	Amount         Numeric     `json:"amount"`
	Vesting        *rawVesting `json:"vesting"`
	LockConditions *struct {
		LockUntilPublicMinted Numeric `json:"lock_until_public_minted"`
	} `json:"lock_conditions"`
}

type rawPayload struct {
	P    string `json:"p"`
	V    string `json:"v"`
	Op   string `json:"op"`
	Tick string `json:"tick"`

	// deploy
	Genesis   bool    `json:"genesis"`
	Supply    Numeric `json:"supply"`
	MintRules *struct {
		UserCap        Numeric     `json:"user_cap"`
		CooldownBlocks Numeric     `json:"cooldown_blocks"`
		Phases         []rawPhase  `json:"phases"`
		ExemptAddrs    []rawExempt `json:"exempt_addrs"`
	} `json:"mint_rules"`
	Fees *rawFees `json:"fees"`

	// mint
	Qty                 Numeric `json:"qty"`
	Minter              string  `json:"minter"`
	DeployInscriptionId string  `json:"deploy_inscription_id"`

	// evolve
	Ref        string          `json:"ref"`
	MerkleRoot string          `json:"merkle_root"`
	ProofURI   string          `json:"proof_uri"`
	SigPQ      string          `json:"sig_pq"`
	Trigger    json.RawMessage `json:"trigger"`
	Meta       json.RawMessage `json:"meta"`
}

// DeployPayload is a validated deploy payload.
type DeployPayload struct {
	Tick    string
	Genesis bool
	Supply  uint128.Uint128
	Rules   MintRules
	Fees    FeeConfig
}

// MintPayload is a validated mint payload. Fees is nil unless the mint carries its own fee block.
// DeployInscriptionId, when set, pins the mint to that deploy instead of the tick's.
type MintPayload struct {
	Tick                string
	Qty                 uint128.Uint128
	Minter              string
	DeployInscriptionId string
	Fees                *FeeConfig
}

// Trigger is the evolve trigger condition, evaluated by a TriggerPolicy.
type Trigger struct {
	Type   string
	Params map[string]json.RawMessage
}

// EvolvePayload is a validated evolve payload.
type EvolvePayload struct {
	Tick       string
	Ref        string
	MerkleRoot string
	ProofURI   string
	SigPQ      string
	Trigger    Trigger
	Fees       EvolveFees
	Meta       json.RawMessage
}

// Payload is exactly one of Deploy, Mint or Evolve, selected by Op.
type Payload struct {
	P      string
	Op     OperationKind
	Tick   string
	Deploy *DeployPayload
	Mint   *MintPayload
	Evolve *EvolvePayload
}

// ParsePayload decodes and validates an operation payload. kind is used when
// the payload has no "op" field and must agree with it otherwise. All
// returned errors are ErrMalformedInput.
func ParsePayload(content []byte, kind OperationKind) (*Payload, error) {
	var p rawPayload
	if err := json.Unmarshal(content, &p); err != nil {
		return nil, errors.Wrapf(ErrMalformedInput, "payload is not valid json: %v", err)
	}

	if p.P != "" && !lo.Contains(supportedProtocols, strings.ToLower(p.P)) {
		return nil, malformed("unsupported protocol %q", p.P)
	}
	op := OperationKind(strings.ToLower(p.Op))
	switch {
	case op == "":
		op = kind
	case kind != "" && op != kind:
		return nil, malformed("payload op %q does not match operation %q", op, kind)
	}
	if !op.IsValid() {
		return nil, malformed("invalid operation %q: must be one of 'deploy', 'mint' or 'evolve'", op)
	}
	if p.Tick == "" {
		return nil, malformed("empty tick")
	}

	parsed := &Payload{P: p.P, Op: op, Tick: p.Tick}
	var err error
	switch op {
	case OperationDeploy:
		parsed.Deploy, err = parseDeploy(&p)
	case OperationMint:
		parsed.Mint, err = parseMint(&p)
	case OperationEvolve:
		parsed.Evolve, err = parseEvolve(&p)
	}
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

// PeekTick returns the tick of a payload without validating it.
func PeekTick(content []byte) string {
	var p struct {
		Tick string `json:"tick"`
	}
	_ = json.Unmarshal(content, &p)
	return p.Tick
}

func parseDeploy(p *rawPayload) (*DeployPayload, error) {
	supply, err := p.Supply.Amount()
	if err != nil {
		return nil, malformed("invalid supply: %v", err)
	}
	if supply.IsZero() {
		return nil, malformed("supply must be positive")
	}
	deploy := &DeployPayload{
		Tick:    p.Tick,
		Genesis: p.Genesis,
		Supply:  supply,
	}

	if rules := p.MintRules; rules != nil {
		if deploy.Rules.UserCap, err = rules.UserCap.Amount(); err != nil {
			return nil, malformed("invalid user_cap: %v", err)
		}
		if deploy.Rules.CooldownBlocks, err = rules.CooldownBlocks.Uint64(); err != nil {
			return nil, malformed("invalid cooldown_blocks: %v", err)
		}
		for i, rp := range rules.Phases {
			phase, err := parsePhase(rp)
			if err != nil {
				return nil, malformed("invalid phase %d: %v", i, err)
			}
			deploy.Rules.Phases = append(deploy.Rules.Phases, phase)
		}
		for i, re := range rules.ExemptAddrs {
			entry, err := parseExempt(re)
			if err != nil {
				return nil, malformed("invalid exempt_addrs[%d]: %v", i, err)
			}
			deploy.Rules.ExemptAddrs = append(deploy.Rules.ExemptAddrs, entry)
		}
	}

	if deploy.Fees, err = parseFeeConfig(p.Fees); err != nil {
		return nil, err
	}
	return deploy, nil
}

func parsePhase(rp rawPhase) (Phase, error) {
	var (
		phase Phase
		err   error
	)
	if phase.StartMinted, err = rp.StartMinted.Amount(); err != nil {
		return Phase{}, errors.Wrap(err, "start_minted")
	}
	if phase.EndMinted, err = rp.EndMinted.Amount(); err != nil {
		return Phase{}, errors.Wrap(err, "end_minted")
	}
	if phase.PriceSats, err = rp.PriceSats.Amount(); err != nil {
		return Phase{}, errors.Wrap(err, "price_sats")
	}
	return phase, nil
}

func parseExempt(re rawExempt) (ExemptEntry, error) {
	if re.Address == "" {
		return ExemptEntry{}, errors.New("empty address")
	}
	amount, err := re.Amount.Amount()
	if err != nil {
		return ExemptEntry{}, errors.Wrap(err, "amount")
	}
	entry := ExemptEntry{
		Address: re.Address,
		Role:    re.Role,
		Amount:  amount,
	}
	if re.LockConditions != nil {
		if entry.LockUntilPublicMinted, err = re.LockConditions.LockUntilPublicMinted.Amount(); err != nil {
			return ExemptEntry{}, errors.Wrap(err, "lock_until_public_minted")
		}
	}
	if re.Vesting != nil {
		vesting, err := parseVesting(re.Vesting, amount)
		if err != nil {
			return ExemptEntry{}, errors.Wrap(err, "vesting")
		}
		entry.Vesting = vesting
	}
	return entry, nil
}

// parseVesting defaults the vested amount to the exempt allocation.
func parseVesting(rv *rawVesting, allocation uint128.Uint128) (*VestingSchedule, error) {
	if rv.Type != "" && rv.Type != "linear" {
		return nil, errors.Errorf("unsupported vesting type %q", rv.Type)
	}
	start, err := ParseTimestamp(rv.Start)
	if err != nil {
		return nil, errors.Wrap(err, "start")
	}
	cliff, err := rv.CliffDays.Uint64()
	if err != nil || cliff > 1<<31 {
		return nil, errors.Errorf("invalid cliff_days %q", rv.CliffDays)
	}
	duration, err := rv.DurationDays.Uint64()
	if err != nil || duration > 1<<31 {
		return nil, errors.Errorf("invalid duration_days %q", rv.DurationDays)
	}
	amount, err := rv.Amount.Amount()
	if err != nil {
		return nil, errors.Wrap(err, "amount")
	}
	if amount.IsZero() {
		amount = allocation
	}
	return &VestingSchedule{
		Start:        start,
		CliffDays:    uint32(cliff),
		DurationDays: uint32(duration),
		Amount:       amount,
		Type:         rv.Type,
		UnlockPeriod: rv.UnlockPeriod,
	}, nil
}

// ParseTimestamp accepts RFC 3339 strings and unix seconds.
func ParseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, errors.New("missing timestamp")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "invalid timestamp %q", s)
		}
		return t.UTC(), nil
	}
	seconds, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, errors.Errorf("invalid timestamp %s", raw)
	}
	return time.Unix(seconds, 0).UTC(), nil
}

func parseFeeConfig(raw *rawFees) (FeeConfig, error) {
	if raw == nil {
		return FeeConfig{}, nil
	}
	creationFee, err := raw.DeployCreationFeeSats.Amount()
	if err != nil {
		return FeeConfig{}, malformed("invalid deploy_creation_fee_sats: %v", err)
	}
	percent, err := raw.ProtocolFeePercent.Percent()
	if err != nil {
		return FeeConfig{}, malformed("invalid protocol_fee_percent: %v", err)
	}
	return FeeConfig{
		DeployCreationFeeSats: creationFee,
		ProtocolFeePercent:    percent,
		CreatorFeeAddress:     firstNonEmpty(raw.CreatorFeeAddress, raw.FeeAddress),
		ProtocolFeeAddress:    raw.ProtocolFeeAddress,
		ReserveAddress:        raw.ReserveAddress,
	}, nil
}

func parseMint(p *rawPayload) (*MintPayload, error) {
	qty, err := p.Qty.Amount()
	if err != nil {
		return nil, malformed("invalid qty: %v", err)
	}
	if qty.IsZero() {
		return nil, malformed("qty must be positive")
	}
	mint := &MintPayload{
		Tick:                p.Tick,
		Qty:                 qty,
		Minter:              p.Minter,
		DeployInscriptionId: p.DeployInscriptionId,
	}
	if p.Fees != nil {
		fees, err := parseFeeConfig(p.Fees)
		if err != nil {
			return nil, err
		}
		mint.Fees = &fees
	}
	return mint, nil
}

func parseEvolve(p *rawPayload) (*EvolvePayload, error) {
	if p.Ref == "" {
		return nil, malformed("empty ref")
	}
	if !merkleRootPattern.MatchString(p.MerkleRoot) {
		return nil, malformed("merkle_root %q must be sha256:<64 lowercase hex>", p.MerkleRoot)
	}
	evolve := &EvolvePayload{
		Tick:       p.Tick,
		Ref:        p.Ref,
		MerkleRoot: p.MerkleRoot,
		ProofURI:   p.ProofURI,
		SigPQ:      p.SigPQ,
		Meta:       p.Meta,
	}

	if len(p.Trigger) > 0 && string(p.Trigger) != "null" {
		params := make(map[string]json.RawMessage)
		if err := json.Unmarshal(p.Trigger, &params); err != nil {
			return nil, malformed("trigger must be an object")
		}
		if rawType, ok := params["type"]; ok {
			if err := json.Unmarshal(rawType, &evolve.Trigger.Type); err != nil {
				return nil, malformed("trigger type must be a string")
			}
			delete(params, "type")
		}
		evolve.Trigger.Params = params
	}

	if p.Fees != nil {
		percent, err := p.Fees.ProtocolFeePercent.Percent()
		if err != nil {
			return nil, malformed("invalid protocol_fee_percent: %v", err)
		}
		evolve.Fees = EvolveFees{
			ProtocolFeePercent: percent,
			FeeAddress:         p.Fees.FeeAddress,
			FeeType:            p.Fees.FeeType,
			FeeScope:           p.Fees.FeeScope,
		}
	}
	return evolve, nil
}
