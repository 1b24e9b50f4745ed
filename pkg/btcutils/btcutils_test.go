package btcutils

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pkScriptCases = []struct {
	name     string
	address  string
	pkScript string
}{
	{
		name:     "P2WPKH",
		address:  "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		pkScript: "0014751e76e8199196d454941c45d1b3a323f1433bd6",
	},
	{
		name:     "P2TR",
		address:  "bc1p0xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqzk5jj0",
		pkScript: "512079be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
	},
}

func TestPkScriptToAddress(t *testing.T) {
	for _, tc := range pkScriptCases {
		t.Run(tc.name, func(t *testing.T) {
			pkScript, err := hex.DecodeString(tc.pkScript)
			require.NoError(t, err)

			address, err := PkScriptToAddress(pkScript, common.NetworkMainnet)
			require.NoError(t, err)
			assert.Equal(t, tc.address, address)
		})
	}

	_, err := PkScriptToAddress([]byte{0x6a, 0x01, 0x00}, common.NetworkMainnet)
	assert.ErrorIs(t, err, errs.Unsupported)
}

func TestIsAddress(t *testing.T) {
	assert.True(t, IsAddress("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", common.NetworkMainnet))
	assert.False(t, IsAddress("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", common.NetworkTestnet))
	assert.False(t, IsAddress("not-an-address", common.NetworkMainnet))
	assert.False(t, IsAddress("", common.NetworkMainnet))
}

func TestDecodeRawTx(t *testing.T) {
	p2wpkh, _ := hex.DecodeString(pkScriptCases[0].pkScript)
	p2tr, _ := hex.DecodeString(pkScriptCases[1].pkScript)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 0}, nil, nil))
	tx.AddTxOut(wire.NewTxOut(210_000, p2tr))
	tx.AddTxOut(wire.NewTxOut(2_100, p2wpkh))
	tx.AddTxOut(wire.NewTxOut(0, []byte{0x6a, 0x01, 0x00}))

	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))

	decoded, err := DecodeRawTx(hex.EncodeToString(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, tx.TxHash(), decoded.TxHash())

	outputs := TxOutputs(decoded, common.NetworkMainnet)
	assert.Equal(t, []TxOut{
		{Address: pkScriptCases[1].address, Value: 210_000},
		{Address: pkScriptCases[0].address, Value: 2_100},
		{Address: "", Value: 0},
	}, outputs)

	_, err = DecodeRawTx("zz")
	assert.ErrorIs(t, err, errs.InvalidArgument)
	_, err = DecodeRawTx("0200")
	assert.ErrorIs(t, err, errs.InvalidArgument)
}
