package brc8888

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
)

// FeeConfig is the fee block of a deploy, or of a mint that overrides it.
type FeeConfig struct {
	DeployCreationFeeSats uint128.Uint128
	ProtocolFeePercent    uint8
	CreatorFeeAddress     string
	ProtocolFeeAddress    string
	ReserveAddress        string
}

// EvolveFees is the fee block of an evolve.
type EvolveFees struct {
	ProtocolFeePercent uint8
	FeeAddress         string
	FeeType            string
	FeeScope           string
}

// FeeShortfall reports a required payment that the transaction did not make.
type FeeShortfall struct {
	Component string
	Address   string
	Required  uint128.Uint128
	Paid      uint128.Uint128
}

func (e *FeeShortfall) Error() string {
	if e.Address == "" {
		return fmt.Sprintf("%s: required %s sats but no address is configured", e.Component, e.Required)
	}
	return fmt.Sprintf("%s: required %s sats to %s, paid %s sats", e.Component, e.Required, e.Address, e.Paid)
}

func (e *FeeShortfall) Is(target error) bool {
	return target == ErrInsufficientFee
}

func requirePayment(tx TxView, component, address string, required uint128.Uint128) error {
	if required.IsZero() {
		return nil
	}
	paid := tx.SumToAddress(address)
	if paid.Cmp(required) < 0 {
		return errors.WithStack(&FeeShortfall{
			Component: component,
			Address:   address,
			Required:  required,
			Paid:      paid,
		})
	}
	return nil
}

// DeployFeeBreakdown is what a deploy paid, zero for genesis deploys.
type DeployFeeBreakdown struct {
	CreationFee     uint128.Uint128
	ProtocolShare   uint128.Uint128
	CreatorAddress  string
	ProtocolAddress string
}

// VerifyDeployFee checks the creation fee and its protocol share. The protocol
// address falls back to treasury when the fee block names none.
func VerifyDeployFee(tx TxView, fees FeeConfig, isGenesis bool, treasury string) (DeployFeeBreakdown, error) {
	if isGenesis {
		return DeployFeeBreakdown{}, nil
	}
	breakdown := DeployFeeBreakdown{
		CreationFee:     fees.DeployCreationFeeSats,
		ProtocolShare:   PercentOf(fees.DeployCreationFeeSats, fees.ProtocolFeePercent),
		CreatorAddress:  fees.CreatorFeeAddress,
		ProtocolAddress: firstNonEmpty(fees.ProtocolFeeAddress, treasury),
	}
	if err := requirePayment(tx, "creation fee", breakdown.CreatorAddress, breakdown.CreationFee); err != nil {
		return breakdown, err
	}
	if err := requirePayment(tx, "protocol fee", breakdown.ProtocolAddress, breakdown.ProtocolShare); err != nil {
		return breakdown, err
	}
	return breakdown, nil
}

// MintFeeBreakdown is the success payload of a mint fee check.
type MintFeeBreakdown struct {
	PhasedCost      uint128.Uint128
	ProtocolShare   uint128.Uint128
	ReserveAddress  string
	ProtocolAddress string
}

// VerifyMintFee prices qty against phases and checks that the reserve and
// protocol addresses were paid. Without phases the mint is free.
func VerifyMintFee(tx TxView, fees FeeConfig, phases []Phase, qty, mintedSoFar uint128.Uint128, treasury string) (MintFeeBreakdown, error) {
	breakdown := MintFeeBreakdown{
		PhasedCost:      uint128.Zero,
		ProtocolShare:   uint128.Zero,
		ReserveAddress:  fees.ReserveAddress,
		ProtocolAddress: firstNonEmpty(fees.ProtocolFeeAddress, treasury),
	}
	if len(phases) == 0 {
		return breakdown, nil
	}

	cost, err := CostOf(phases, mintedSoFar, qty)
	if err != nil {
		return breakdown, errors.WithStack(err)
	}
	breakdown.PhasedCost = cost
	breakdown.ProtocolShare = PercentOf(cost, fees.ProtocolFeePercent)

	if err := requirePayment(tx, "phased mint cost", breakdown.ReserveAddress, breakdown.PhasedCost); err != nil {
		return breakdown, err
	}
	if err := requirePayment(tx, "protocol fee", breakdown.ProtocolAddress, breakdown.ProtocolShare); err != nil {
		return breakdown, err
	}
	return breakdown, nil
}

// EvolveFeeBreakdown is the success payload of an evolve fee check.
type EvolveFeeBreakdown struct {
	TransferredValue uint128.Uint128
	ProtocolShare    uint128.Uint128
	FeeAddress       string
}

// VerifyEvolveFee requires the fee address to receive the configured share of
// the value the transaction sends anywhere else.
func VerifyEvolveFee(tx TxView, fees EvolveFees, treasury string) (EvolveFeeBreakdown, error) {
	address := firstNonEmpty(fees.FeeAddress, treasury)
	transferred := tx.SumExcept(address)
	breakdown := EvolveFeeBreakdown{
		TransferredValue: transferred,
		ProtocolShare:    PercentOf(transferred, fees.ProtocolFeePercent),
		FeeAddress:       address,
	}
	if err := requirePayment(tx, "evolve protocol fee", address, breakdown.ProtocolShare); err != nil {
		return breakdown, err
	}
	return breakdown, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
