package badger

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/datagateway"
)

var ErrTxAlreadyExists = errors.New("Transaction already exists. Call Commit() or Rollback() first.")

var _ datagateway.BRC8888DataGatewayWithTx = (*Repository)(nil)

func (r *Repository) BeginBRC8888Tx(_ context.Context) (datagateway.BRC8888DataGatewayWithTx, error) {
	if r.txn != nil {
		return nil, errors.WithStack(ErrTxAlreadyExists)
	}
	return &Repository{
		db:  r.db,
		txn: r.db.NewTransaction(true),
	}, nil
}

func (r *Repository) Commit(_ context.Context) error {
	if r.txn == nil {
		return nil
	}
	if err := r.txn.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	r.txn = nil
	return nil
}

func (r *Repository) Rollback(_ context.Context) error {
	if r.txn == nil {
		return nil
	}
	r.txn.Discard()
	r.txn = nil
	return nil
}
