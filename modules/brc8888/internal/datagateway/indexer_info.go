package datagateway

import (
	"context"

	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/entity"
)

type IndexerInfoDataGateway interface {
	GetLatestIndexerState(ctx context.Context) (entity.IndexerState, error)
	CreateIndexerState(ctx context.Context, state entity.IndexerState) error
}
