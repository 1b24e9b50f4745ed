package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/datagateway"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/entity"
	"github.com/jackc/pgx/v5"
)

var _ datagateway.IndexerInfoDataGateway = (*Repository)(nil)

const getLatestIndexerState = `SELECT client_version, db_version, event_hash_version, network, created_at
FROM brc8888_indexer_states ORDER BY created_at DESC, id DESC LIMIT 1`

func (r *Repository) GetLatestIndexerState(ctx context.Context) (entity.IndexerState, error) {
	var (
		state   entity.IndexerState
		network string
	)
	err := r.q.QueryRow(ctx, getLatestIndexerState).Scan(&state.ClientVersion, &state.DBVersion, &state.EventHashVersion, &network, &state.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.IndexerState{}, errors.WithStack(errs.NotFound)
		}
		return entity.IndexerState{}, errors.Wrap(err, "error during query")
	}
	state.Network = common.Network(network)
	return state, nil
}

const createIndexerState = `INSERT INTO brc8888_indexer_states (client_version, db_version, event_hash_version, network) VALUES ($1, $2, $3, $4)`

func (r *Repository) CreateIndexerState(ctx context.Context, state entity.IndexerState) error {
	if _, err := r.q.Exec(ctx, createIndexerState, state.ClientVersion, state.DBVersion, state.EventHashVersion, state.Network.String()); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}
