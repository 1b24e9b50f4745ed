package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v4"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/datagateway"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/entity"
)

var _ datagateway.BRC8888DataGateway = (*Repository)(nil)

func (r *Repository) GetLatestCheckpoint(_ context.Context) (*entity.Checkpoint, error) {
	return r.getLastCheckpoint(lastKey(prefixCheckpoint))
}

func (r *Repository) GetLatestCheckpointBefore(_ context.Context, sequence uint64) (*entity.Checkpoint, error) {
	if sequence == 0 {
		return nil, errors.WithStack(errs.NotFound)
	}
	return r.getLastCheckpoint(sequenceKey(prefixCheckpoint, sequence-1))
}

func (r *Repository) getLastCheckpoint(seek []byte) (*entity.Checkpoint, error) {
	var record checkpointRecord
	var found bool
	err := r.view(func(txn *badger.Txn) (err error) {
		found, err = seekLast(txn, prefixCheckpoint, seek, func(item *badger.Item) error {
			return item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
		})
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	if !found {
		return nil, errors.WithStack(errs.NotFound)
	}
	return &entity.Checkpoint{
		Sequence:            record.Sequence,
		BlockHeight:         record.BlockHeight,
		CumulativeEventHash: record.CumulativeEventHash,
		Snapshot:            record.Snapshot,
		CreatedAt:           record.CreatedAt,
	}, nil
}

func (r *Repository) GetLatestEvent(_ context.Context) (*entity.Event, error) {
	var record eventRecord
	var found bool
	err := r.view(func(txn *badger.Txn) (err error) {
		found, err = seekLast(txn, prefixEvent, lastKey(prefixEvent), func(item *badger.Item) error {
			return item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
		})
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	if !found {
		return nil, errors.WithStack(errs.NotFound)
	}
	event, err := record.toEntity()
	return event, errors.WithStack(err)
}

func (r *Repository) GetEventByInscriptionId(_ context.Context, inscriptionId string) (*entity.Event, error) {
	var record eventRecord
	err := r.view(func(txn *badger.Txn) error {
		item, err := txn.Get(eventIdKey(inscriptionId))
		if err != nil {
			return err
		}
		sequence, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(sequenceKey(prefixEvent, binary.BigEndian.Uint64(sequence)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	event, err := record.toEntity()
	return event, errors.WithStack(err)
}

func (r *Repository) GetEvents(_ context.Context, tick string, fromSequence uint64, limit int) ([]*entity.Event, error) {
	events := make([]*entity.Event, 0, limit)
	err := r.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefixEvent
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(sequenceKey(prefixEvent, fromSequence)); it.ValidForPrefix(prefixEvent) && len(events) < limit; it.Next() {
			var record eventRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return errors.WithStack(err)
			}
			if tick != "" && record.Tick != tick {
				continue
			}
			event, err := record.toEntity()
			if err != nil {
				return errors.WithStack(err)
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	return events, nil
}

func (r *Repository) CreateEvents(_ context.Context, events []*entity.Event) error {
	now := time.Now().UTC()
	err := r.update(func(txn *badger.Txn) error {
		for _, event := range events {
			value, err := json.Marshal(newEventRecord(event, now))
			if err != nil {
				return errors.Wrap(err, "failed to encode event")
			}
			if err := txn.Set(sequenceKey(prefixEvent, event.Sequence), value); err != nil {
				return errors.WithStack(err)
			}
			// the id index points at the first event of an inscription, replays keep it
			idKey := eventIdKey(event.InscriptionId)
			if _, err := txn.Get(idKey); err == nil {
				continue
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return errors.WithStack(err)
			}
			sequence := make([]byte, 8)
			binary.BigEndian.PutUint64(sequence, event.Sequence)
			if err := txn.Set(idKey, sequence); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	return errors.Wrap(err, "error during exec")
}

func (r *Repository) CreateCheckpoint(_ context.Context, checkpoint *entity.Checkpoint) error {
	value, err := json.Marshal(checkpointRecord{
		Sequence:            checkpoint.Sequence,
		BlockHeight:         checkpoint.BlockHeight,
		CumulativeEventHash: checkpoint.CumulativeEventHash,
		Snapshot:            checkpoint.Snapshot,
		CreatedAt:           time.Now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to encode checkpoint")
	}
	err = r.update(func(txn *badger.Txn) error {
		return txn.Set(sequenceKey(prefixCheckpoint, checkpoint.Sequence), value)
	})
	return errors.Wrap(err, "error during exec")
}

func (r *Repository) DeleteEventsSinceSequence(_ context.Context, sequence uint64) error {
	err := r.update(func(txn *badger.Txn) error {
		var ids [][]byte
		err := deleteFrom(txn, prefixEvent, sequenceKey(prefixEvent, sequence), func(val []byte) error {
			var record eventRecord
			if err := json.Unmarshal(val, &record); err != nil {
				return err
			}
			ids = append(ids, eventIdKey(record.InscriptionId))
			return nil
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			item, err := txn.Get(id)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return errors.WithStack(err)
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return errors.WithStack(err)
			}
			// only drop the index when it points into the deleted range
			if binary.BigEndian.Uint64(value) < sequence {
				continue
			}
			if err := txn.Delete(id); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	return errors.Wrap(err, "error during exec")
}

func (r *Repository) DeleteCheckpointsSinceSequence(_ context.Context, sequence uint64) error {
	err := r.update(func(txn *badger.Txn) error {
		return deleteFrom(txn, prefixCheckpoint, sequenceKey(prefixCheckpoint, sequence), nil)
	})
	return errors.Wrap(err, "error during exec")
}
