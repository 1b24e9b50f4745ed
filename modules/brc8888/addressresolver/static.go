package addressresolver

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/brc8888"
	"github.com/samber/lo"
)

var _ AddressResolver = StaticResolver(nil)

// StaticResolver resolves from recorded transactions, keyed by txid. It is
// read-only after construction and safe for concurrent use.
type StaticResolver map[string]DerivedAddresses

// NewStaticResolver records the derived addresses of every transaction that
// has a txid and at least one output.
func NewStaticResolver(txs ...brc8888.TxView) StaticResolver {
	resolver := make(StaticResolver, len(txs))
	for _, tx := range txs {
		if tx.TxHash == "" {
			continue
		}
		derived, err := derive(tx.TxHash, lo.Map(tx.Outputs, func(out brc8888.TxOutput, _ int) string {
			return out.Address
		}))
		if err != nil {
			continue
		}
		resolver[tx.TxHash] = derived
	}
	return resolver
}

func (r StaticResolver) ResolveAddresses(_ context.Context, txHash string) (DerivedAddresses, error) {
	derived, ok := r[txHash]
	if !ok {
		return DerivedAddresses{}, errors.Wrapf(errs.NotFound, "tx %s is not recorded", txHash)
	}
	return derived, nil
}
