package brc8888

import "github.com/gaze-network/uint128"

// TxOutput is one decoded output of an operation's transaction.
type TxOutput struct {
	Address string `json:"address"`
	Sats    uint64 `json:"sats"`
}

// TxView is the read-only view of a transaction the validator checks payments against.
type TxView struct {
	TxHash  string     `json:"txid,omitempty"`
	Outputs []TxOutput `json:"outputs"`
}

// SumToAddress adds up every output paying exactly address. An empty
// address never matches.
func (tx TxView) SumToAddress(address string) uint128.Uint128 {
	total := uint128.Zero
	if address == "" {
		return total
	}
	for _, out := range tx.Outputs {
		if out.Address == address {
			total = total.Add64(out.Sats)
		}
	}
	return total
}

// SumExcept adds up every output not paying address.
func (tx TxView) SumExcept(address string) uint128.Uint128 {
	total := uint128.Zero
	for _, out := range tx.Outputs {
		if address == "" || out.Address != address {
			total = total.Add64(out.Sats)
		}
	}
	return total
}
