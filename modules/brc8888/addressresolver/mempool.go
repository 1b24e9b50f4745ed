package addressresolver

import (
	"context"
	"net/url"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/pkg/httpclient"
	"github.com/samber/lo"
	"github.com/valyala/fasthttp"
)

var _ AddressResolver = (*MempoolResolver)(nil)

// MempoolResolver reads deploy transactions from an Esplora compatible REST
// API such as mempool.space (e.g. https://mempool.space/api).
type MempoolResolver struct {
	client *httpclient.Client
}

func NewMempoolResolver(client *httpclient.Client) *MempoolResolver {
	return &MempoolResolver{
		client: client,
	}
}

type esploraTx struct {
	Txid string        `json:"txid"`
	Vout []esploraVout `json:"vout"`
}

type esploraVout struct {
	ScriptPubKeyAddress string `json:"scriptpubkey_address"`
	Value               int64  `json:"value"`
}

func (r *MempoolResolver) ResolveAddresses(ctx context.Context, txHash string) (DerivedAddresses, error) {
	resp, err := r.client.Get(ctx, "/tx/"+url.PathEscape(txHash), httpclient.RequestOptions{})
	if err != nil {
		return DerivedAddresses{}, errors.Wrapf(err, "failed to fetch tx %s", txHash)
	}

	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusNotFound, status == fasthttp.StatusBadRequest:
		return DerivedAddresses{}, errors.Wrapf(errs.NotFound, "tx %s: %s", txHash, string(resp.Body()))
	case status != fasthttp.StatusOK:
		return DerivedAddresses{}, errors.Errorf("unexpected status %d fetching tx %s", status, txHash)
	}

	var tx esploraTx
	if err := resp.UnmarshalBody(&tx); err != nil {
		return DerivedAddresses{}, errors.Wrapf(err, "failed to decode tx %s", txHash)
	}
	return derive(txHash, lo.Map(tx.Vout, func(out esploraVout, _ int) string {
		return out.ScriptPubKeyAddress
	}))
}
