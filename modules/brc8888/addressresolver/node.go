package addressresolver

import (
	"context"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/pkg/btcutils"
	"github.com/samber/lo"
)

var _ AddressResolver = (*NodeResolver)(nil)

// RawTransactionGetter is the subset of *rpcclient.Client used by NodeResolver.
type RawTransactionGetter interface {
	GetRawTransaction(txHash *chainhash.Hash) (*btcutil.Tx, error)
}

// NodeResolver reads deploy transactions from a Bitcoin Core node. The node
// must run with -txindex to serve confirmed transactions.
type NodeResolver struct {
	client  RawTransactionGetter
	network common.Network
}

func NewNodeResolver(client RawTransactionGetter, network common.Network) *NodeResolver {
	return &NodeResolver{
		client:  client,
		network: network,
	}
}

func (r *NodeResolver) ResolveAddresses(ctx context.Context, txHash string) (DerivedAddresses, error) {
	hash, err := chainhash.NewHashFromStr(txHash)
	if err != nil {
		return DerivedAddresses{}, errors.Wrapf(errs.NotFound, "invalid txid %q", txHash)
	}
	if err := ctx.Err(); err != nil {
		return DerivedAddresses{}, errors.WithStack(err)
	}

	tx, err := r.client.GetRawTransaction(hash)
	if err != nil {
		var rpcErr *btcjson.RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == btcjson.ErrRPCInvalidAddressOrKey {
			return DerivedAddresses{}, errors.Wrapf(errs.NotFound, "tx %s: %s", txHash, rpcErr.Message)
		}
		return DerivedAddresses{}, errors.Wrapf(err, "failed to get raw transaction %s", txHash)
	}

	outputs := btcutils.TxOutputs(tx.MsgTx(), r.network)
	return derive(txHash, lo.Map(outputs, func(out btcutils.TxOut, _ int) string {
		return out.Address
	}))
}
