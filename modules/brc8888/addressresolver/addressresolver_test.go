package addressresolver

import (
	"context"
	"net"
	"testing"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/brc8888"
	"github.com/gaze-network/brc8888-indexer/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

const (
	// BIP173 and BIP350 mainnet test vectors
	reserveAddr  = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	treasuryAddr = "bc1p0xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqzk5jj0"

	knownTxid = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
)

type mockRawTransactionGetter struct {
	mock.Mock
}

func (m *mockRawTransactionGetter) GetRawTransaction(txHash *chainhash.Hash) (*btcutil.Tx, error) {
	args := m.Called(txHash.String())
	tx, _ := args.Get(0).(*btcutil.Tx)
	return tx, args.Error(1)
}

func payTo(t *testing.T, addresses ...string) *wire.MsgTx {
	t.Helper()
	msgTx := wire.NewMsgTx(wire.TxVersion)
	msgTx.AddTxIn(wire.NewTxIn(&wire.OutPoint{}, nil, nil))
	for _, address := range addresses {
		addr, err := btcutil.DecodeAddress(address, &chaincfg.MainNetParams)
		require.NoError(t, err)
		pkScript, err := txscript.PayToAddrScript(addr)
		require.NoError(t, err)
		msgTx.AddTxOut(wire.NewTxOut(1000, pkScript))
	}
	return msgTx
}

func TestNodeResolver(t *testing.T) {
	client := &mockRawTransactionGetter{}
	client.On("GetRawTransaction", knownTxid).Return(btcutil.NewTx(payTo(t, reserveAddr, treasuryAddr)), nil)
	resolver := NewNodeResolver(client, common.NetworkMainnet)

	derived, err := resolver.ResolveAddresses(context.Background(), knownTxid)
	require.NoError(t, err)
	assert.Equal(t, DerivedAddresses{Reserve: reserveAddr, Treasury: treasuryAddr}, derived)
	client.AssertExpectations(t)
}

func TestNodeResolverNotFound(t *testing.T) {
	const missing = "0000000000000000000000000000000000000000000000000000000000000001"
	client := &mockRawTransactionGetter{}
	client.On("GetRawTransaction", missing).Return(nil, &btcjson.RPCError{
		Code:    btcjson.ErrRPCInvalidAddressOrKey,
		Message: "No such mempool or blockchain transaction",
	})
	resolver := NewNodeResolver(client, common.NetworkMainnet)

	_, err := resolver.ResolveAddresses(context.Background(), missing)
	assert.True(t, errors.Is(err, errs.NotFound), err)

	_, err = resolver.ResolveAddresses(context.Background(), "not-a-txid")
	assert.True(t, errors.Is(err, errs.NotFound), err)
}

func TestNodeResolverNodeFailure(t *testing.T) {
	client := &mockRawTransactionGetter{}
	client.On("GetRawTransaction", knownTxid).Return(nil, errors.New("connection refused"))
	resolver := NewNodeResolver(client, common.NetworkMainnet)

	_, err := resolver.ResolveAddresses(context.Background(), knownTxid)
	require.Error(t, err)
	assert.False(t, errors.Is(err, errs.NotFound))
}

func TestNodeResolverNoOutputs(t *testing.T) {
	client := &mockRawTransactionGetter{}
	client.On("GetRawTransaction", knownTxid).Return(btcutil.NewTx(payTo(t)), nil)
	resolver := NewNodeResolver(client, common.NetworkMainnet)

	_, err := resolver.ResolveAddresses(context.Background(), knownTxid)
	assert.True(t, errors.Is(err, errs.NotFound), err)
}

func serveEsplora(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	server := &fasthttp.Server{Handler: func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/api/tx/" + knownTxid:
			ctx.SetContentType("application/json")
			ctx.SetBodyString(`{"txid":"` + knownTxid + `","vout":[` +
				`{"scriptpubkey_address":"` + reserveAddr + `","value":1000},` +
				`{"scriptpubkey_address":"` + treasuryAddr + `","value":546}]}`)
		case "/api/tx/broken":
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			ctx.SetContentType("text/plain")
			ctx.SetBodyString("Transaction not found")
		}
	}}
	go func() {
		_ = server.Serve(ln)
	}()
	t.Cleanup(func() {
		_ = server.Shutdown()
	})
	return "http://" + ln.Addr().String() + "/api"
}

func TestMempoolResolver(t *testing.T) {
	client, err := httpclient.New(serveEsplora(t))
	require.NoError(t, err)
	resolver := NewMempoolResolver(client)

	derived, err := resolver.ResolveAddresses(context.Background(), knownTxid)
	require.NoError(t, err)
	assert.Equal(t, DerivedAddresses{Reserve: reserveAddr, Treasury: treasuryAddr}, derived)

	_, err = resolver.ResolveAddresses(context.Background(), "unknown")
	assert.True(t, errors.Is(err, errs.NotFound), err)

	_, err = resolver.ResolveAddresses(context.Background(), "broken")
	require.Error(t, err)
	assert.False(t, errors.Is(err, errs.NotFound))
}

func TestStaticResolver(t *testing.T) {
	resolver := NewStaticResolver(
		brc8888.TxView{TxHash: "a", Outputs: []brc8888.TxOutput{{Address: reserveAddr, Sats: 1}}},
		brc8888.TxView{TxHash: "b"},
		brc8888.TxView{Outputs: []brc8888.TxOutput{{Address: treasuryAddr, Sats: 1}}},
	)
	assert.Len(t, resolver, 1)

	derived, err := resolver.ResolveAddresses(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, DerivedAddresses{Reserve: reserveAddr}, derived)

	_, err = resolver.ResolveAddresses(context.Background(), "b")
	assert.True(t, errors.Is(err, errs.NotFound))
}

type countingResolver struct {
	calls   int
	results map[string]DerivedAddresses
}

func (r *countingResolver) ResolveAddresses(_ context.Context, txHash string) (DerivedAddresses, error) {
	r.calls++
	derived, ok := r.results[txHash]
	if !ok {
		return DerivedAddresses{}, errs.NotFound
	}
	return derived, nil
}

func TestCachedResolver(t *testing.T) {
	inner := &countingResolver{results: map[string]DerivedAddresses{"a": {Reserve: reserveAddr}}}
	resolver, err := NewCachedResolver(inner, 2)
	require.NoError(t, err)

	for range 3 {
		derived, err := resolver.ResolveAddresses(context.Background(), "a")
		require.NoError(t, err)
		assert.Equal(t, reserveAddr, derived.Reserve)
	}
	assert.Equal(t, 1, inner.calls)

	// failures are not cached
	for range 2 {
		_, err := resolver.ResolveAddresses(context.Background(), "missing")
		assert.True(t, errors.Is(err, errs.NotFound))
	}
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 1, resolver.Len())
}
