package badger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v4"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/datagateway"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/entity"
)

var _ datagateway.IndexerInfoDataGateway = (*Repository)(nil)

func (r *Repository) GetLatestIndexerState(_ context.Context) (entity.IndexerState, error) {
	var record indexerStateRecord
	var found bool
	err := r.view(func(txn *badger.Txn) (err error) {
		found, err = seekLast(txn, prefixIndexerState, lastKey(prefixIndexerState), func(item *badger.Item) error {
			return item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
		})
		return err
	})
	if err != nil {
		return entity.IndexerState{}, errors.Wrap(err, "error during query")
	}
	if !found {
		return entity.IndexerState{}, errors.WithStack(errs.NotFound)
	}
	return record.toEntity(), nil
}

func (r *Repository) CreateIndexerState(_ context.Context, state entity.IndexerState) error {
	now := time.Now().UTC()
	value, err := json.Marshal(indexerStateRecord{
		ClientVersion:    state.ClientVersion,
		DBVersion:        state.DBVersion,
		EventHashVersion: state.EventHashVersion,
		Network:          state.Network.String(),
		CreatedAt:        now,
	})
	if err != nil {
		return errors.Wrap(err, "failed to encode indexer state")
	}
	err = r.update(func(txn *badger.Txn) error {
		return txn.Set(sequenceKey(prefixIndexerState, uint64(now.UnixNano())), value)
	})
	return errors.Wrap(err, "error during exec")
}
