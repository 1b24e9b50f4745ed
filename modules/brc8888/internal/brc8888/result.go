package brc8888

import "github.com/gaze-network/uint128"

// Result is the outcome of validating one operation. A rejected operation
// has Valid=false, Err set to an error matching exactly one ErrorKind, and no
// effect on the ledger.
type Result struct {
	Valid  bool
	Kind   ErrorKind
	Err    error
	Op     OperationKind
	Tick   string
	Reason string

	Deploy *DeployReceipt
	Mint   *MintReceipt
	Evolve *EvolveReceipt
}

type DeployReceipt struct {
	Tick            string
	Genesis         bool
	Supply          uint128.Uint128
	Fees            DeployFeeBreakdown
	DerivedReserve  string
	DerivedTreasury string
}

type MintReceipt struct {
	Tick        string
	Minter      string
	Qty         uint128.Uint128
	Exempt      bool
	TotalMinted uint128.Uint128
	Fees        MintFeeBreakdown
}

type EvolveReceipt struct {
	Tick       string
	Ref        string
	MerkleRoot string
	Depth      int
	Fees       EvolveFeeBreakdown
}

func rejected(op OperationKind, tick string, err error) Result {
	return Result{
		Valid:  false,
		Kind:   KindOf(err),
		Err:    err,
		Op:     op,
		Tick:   tick,
		Reason: err.Error(),
	}
}

func accepted(op OperationKind, tick, reason string) Result {
	return Result{
		Valid:  true,
		Op:     op,
		Tick:   tick,
		Reason: reason,
	}
}
