package oplog

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/brc8888"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `# recorded UNQ operations
{"inscription_id":"aaa0i0","inscriber":"bc1qfounder","block_height":925000,"timestamp":"2025-11-18T00:00:00Z","content":{"p":"brc-8888","op":"deploy","tick":"UNQ","max":"21000000"},"tx":{"txid":"0000000000000000000000000000000000000000000000000000000000000001","outputs":[{"address":"bc1qreserve","sats":1000}]}}

{"inscription_id":"bbb0i0","op":"mint","inscriber":"bc1qminter","block_height":925001,"timestamp":1763424600,"content":"{\"p\":\"brc-8888\",\"op\":\"mint\",\"tick\":\"UNQ\",\"amt\":\"100\"}"}
{"inscription_id":"ccc0i0","inscriber":"bc1qminter","block_height":925002,"content":{"p":"brc-8888","op":"mint","tick":"UNQ","amt":"100"}}
`

func TestRead(t *testing.T) {
	records, err := Read(context.Background(), strings.NewReader(sampleLog), common.NetworkMainnet, 1, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)

	deploy := records[0]
	assert.Equal(t, uint64(1), deploy.Sequence)
	assert.Equal(t, "aaa0i0", deploy.Operation.InscriptionId)
	assert.Equal(t, uint64(925000), deploy.Operation.BlockHeight)
	assert.Equal(t, time.Date(2025, 11, 18, 0, 0, 0, 0, time.UTC), deploy.Operation.Timestamp.UTC())
	assert.Equal(t, "UNQ", deploy.Operation.Tick())
	require.Len(t, deploy.Operation.Tx.Outputs, 1)
	assert.Equal(t, brc8888.TxOutput{Address: "bc1qreserve", Sats: 1000}, deploy.Operation.Tx.Outputs[0])

	mint := records[1]
	assert.Equal(t, uint64(2), mint.Sequence)
	assert.Equal(t, brc8888.OperationMint, mint.Operation.Kind)
	assert.Equal(t, int64(1763424600), mint.Operation.Timestamp.Unix())
	assert.JSONEq(t, `{"p":"brc-8888","op":"mint","tick":"UNQ","amt":"100"}`, string(mint.Operation.Content))

	assert.Equal(t, uint64(3), records[2].Sequence)
	assert.True(t, records[2].Operation.Timestamp.IsZero())
}

func TestReadRange(t *testing.T) {
	records, err := Read(context.Background(), strings.NewReader(sampleLog), common.NetworkMainnet, 2, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(2), records[0].Sequence)
	assert.Equal(t, "bbb0i0", records[0].Operation.InscriptionId)

	records, err = Read(context.Background(), strings.NewReader(sampleLog), common.NetworkMainnet, 4, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadCorruptLine(t *testing.T) {
	log := sampleLog + "{not json\n"
	_, err := Read(context.Background(), strings.NewReader(log), common.NetworkMainnet, 1, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.InvalidArgument))
	assert.Contains(t, err.Error(), "line 6")
}

func TestDecodeOperationInvalidTxid(t *testing.T) {
	_, err := DecodeOperation([]byte(`{"inscription_id":"x","tx":{"txid":"zz","outputs":[]}}`), common.NetworkMainnet)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.InvalidArgument))
}

func TestDecodeOperationRawTx(t *testing.T) {
	// BIP173 P2WPKH test vector
	const reserve = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	addr, err := btcutil.DecodeAddress(reserve, &chaincfg.MainNetParams)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	msgTx := wire.NewMsgTx(wire.TxVersion)
	msgTx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 0}, nil, nil))
	msgTx.AddTxOut(wire.NewTxOut(210_000, pkScript))
	var buf bytes.Buffer
	require.NoError(t, msgTx.Serialize(&buf))

	line := `{"inscription_id":"ddd0i0","raw_tx":"` + hex.EncodeToString(buf.Bytes()) + `","tx":{"outputs":[{"address":"ignored","sats":1}]}}`
	op, err := DecodeOperation([]byte(line), common.NetworkMainnet)
	require.NoError(t, err)
	assert.Equal(t, msgTx.TxHash().String(), op.Tx.TxHash)
	assert.Equal(t, []brc8888.TxOutput{{Address: reserve, Sats: 210_000}}, op.Tx.Outputs)
}

func TestReadFileNotFound(t *testing.T) {
	_, err := ReadFile(context.Background(), t.TempDir()+"/missing.jsonl", common.NetworkMainnet, 1, 0)
	assert.True(t, errors.Is(err, errs.NotFound))
}

func TestCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "operations.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0o600))

	count, err := Count(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	records, err := ReadFile(context.Background(), path, common.NetworkMainnet, count, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ccc0i0", records[0].Operation.InscriptionId)
}
