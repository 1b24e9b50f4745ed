package btcutils

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
)

// TxOut is a transaction output resolved to its address. Address is empty for
// outputs without a single standard address.
type TxOut struct {
	Address string
	Value   int64
}

// DecodeRawTx decodes a hex-encoded serialized transaction, with or without witness data.
func DecodeRawTx(rawTx string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(rawTx)
	if err != nil {
		return nil, errors.Wrap(errs.InvalidArgument, "raw tx is not valid hex")
	}
	msgTx := wire.NewMsgTx(wire.TxVersion)
	if err := msgTx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, errors.Wrap(errors.Mark(err, errs.InvalidArgument), "can't deserialize raw tx")
	}
	return msgTx, nil
}

// TxOutputs resolves every output of tx to its address on network.
func TxOutputs(tx *wire.MsgTx, network common.Network) []TxOut {
	outputs := make([]TxOut, 0, len(tx.TxOut))
	for _, txOut := range tx.TxOut {
		address, _ := PkScriptToAddress(txOut.PkScript, network)
		outputs = append(outputs, TxOut{
			Address: address,
			Value:   txOut.Value,
		})
	}
	return outputs
}
