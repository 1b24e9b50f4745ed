package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/datagateway"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/entity"
	"github.com/jackc/pgx/v5"
)

var _ datagateway.BRC8888DataGateway = (*Repository)(nil)

const checkpointColumns = `sequence, block_height, cumulative_event_hash, snapshot, created_at`

const getLatestCheckpoint = `SELECT ` + checkpointColumns + ` FROM brc8888_checkpoints ORDER BY sequence DESC LIMIT 1`

func (r *Repository) GetLatestCheckpoint(ctx context.Context) (*entity.Checkpoint, error) {
	checkpoint, err := scanCheckpoint(r.q.QueryRow(ctx, getLatestCheckpoint))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return checkpoint, nil
}

const getLatestCheckpointBefore = `SELECT ` + checkpointColumns + ` FROM brc8888_checkpoints WHERE sequence < $1 ORDER BY sequence DESC LIMIT 1`

func (r *Repository) GetLatestCheckpointBefore(ctx context.Context, sequence uint64) (*entity.Checkpoint, error) {
	checkpoint, err := scanCheckpoint(r.q.QueryRow(ctx, getLatestCheckpointBefore, int64(sequence)))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return checkpoint, nil
}

const eventColumns = `sequence, inscription_id, op, tick, valid, kind, reason, address, amount::text, block_height, tx_hash, event_hash, cumulative_event_hash, created_at`

const getLatestEvent = `SELECT ` + eventColumns + ` FROM brc8888_events ORDER BY sequence DESC LIMIT 1`

func (r *Repository) GetLatestEvent(ctx context.Context) (*entity.Event, error) {
	event, err := scanEvent(r.q.QueryRow(ctx, getLatestEvent))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return event, nil
}

const getEventByInscriptionId = `SELECT ` + eventColumns + ` FROM brc8888_events WHERE inscription_id = $1 ORDER BY sequence LIMIT 1`

func (r *Repository) GetEventByInscriptionId(ctx context.Context, inscriptionId string) (*entity.Event, error) {
	event, err := scanEvent(r.q.QueryRow(ctx, getEventByInscriptionId, inscriptionId))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return event, nil
}

const getEvents = `SELECT ` + eventColumns + ` FROM brc8888_events
WHERE sequence >= $1 AND ($2 = '' OR tick = $2)
ORDER BY sequence LIMIT $3`

func (r *Repository) GetEvents(ctx context.Context, tick string, fromSequence uint64, limit int) ([]*entity.Event, error) {
	rows, err := r.q.Query(ctx, getEvents, int64(fromSequence), tick, limit)
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	events := make([]*entity.Event, 0, limit)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during rows iteration")
	}
	return events, nil
}

const createEvent = `INSERT INTO brc8888_events (sequence, inscription_id, op, tick, valid, kind, reason, address, amount, block_height, tx_hash, event_hash, cumulative_event_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::numeric, $10, $11, $12, $13)`

func (r *Repository) CreateEvents(ctx context.Context, events []*entity.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		params := mapEventTypeToParams(event)
		batch.Queue(createEvent, params...)
	}
	results := r.q.SendBatch(ctx, batch)
	defer results.Close()
	for range events {
		if _, err := results.Exec(); err != nil {
			return errors.Wrap(err, "error during exec")
		}
	}
	return nil
}

const createCheckpoint = `INSERT INTO brc8888_checkpoints (sequence, block_height, cumulative_event_hash, snapshot) VALUES ($1, $2, $3, $4)`

func (r *Repository) CreateCheckpoint(ctx context.Context, checkpoint *entity.Checkpoint) error {
	if _, err := r.q.Exec(ctx, createCheckpoint, int64(checkpoint.Sequence), int64(checkpoint.BlockHeight), checkpoint.CumulativeEventHash, checkpoint.Snapshot); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) DeleteEventsSinceSequence(ctx context.Context, sequence uint64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM brc8888_events WHERE sequence >= $1`, int64(sequence)); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) DeleteCheckpointsSinceSequence(ctx context.Context, sequence uint64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM brc8888_checkpoints WHERE sequence >= $1`, int64(sequence)); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func scanCheckpoint(row pgx.Row) (*entity.Checkpoint, error) {
	var model checkpointModel
	if err := row.Scan(&model.Sequence, &model.BlockHeight, &model.CumulativeEventHash, &model.Snapshot, &model.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	return mapCheckpointModelToType(model), nil
}

func scanEvent(row pgx.Row) (*entity.Event, error) {
	var model eventModel
	if err := row.Scan(&model.Sequence, &model.InscriptionId, &model.Op, &model.Tick, &model.Valid, &model.Kind, &model.Reason,
		&model.Address, &model.Amount, &model.BlockHeight, &model.TxHash, &model.EventHash, &model.CumulativeEventHash, &model.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	event, err := mapEventModelToType(model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to map event model")
	}
	return event, nil
}
