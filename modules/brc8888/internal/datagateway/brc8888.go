package datagateway

import (
	"context"

	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/entity"
)

type BRC8888DataGateway interface {
	BRC8888ReaderDataGateway
	BRC8888WriterDataGateway

	// BeginBRC8888Tx returns a new BRC8888DataGateway with transaction enabled. All write operations performed in this datagateway must be committed to persist changes.
	BeginBRC8888Tx(ctx context.Context) (BRC8888DataGatewayWithTx, error)
}

type BRC8888DataGatewayWithTx interface {
	BRC8888DataGateway
	Tx
}

type BRC8888ReaderDataGateway interface {
	// GetLatestCheckpoint returns errs.NotFound when no checkpoint was taken yet.
	GetLatestCheckpoint(ctx context.Context) (*entity.Checkpoint, error)
	// GetLatestCheckpointBefore returns the latest checkpoint with a sequence lower than sequence.
	GetLatestCheckpointBefore(ctx context.Context, sequence uint64) (*entity.Checkpoint, error)
	GetLatestEvent(ctx context.Context) (*entity.Event, error)
	GetEventByInscriptionId(ctx context.Context, inscriptionId string) (*entity.Event, error)
	// GetEvents returns events in sequence order. An empty tick matches every ticker.
	GetEvents(ctx context.Context, tick string, fromSequence uint64, limit int) ([]*entity.Event, error)
}

type BRC8888WriterDataGateway interface {
	CreateEvents(ctx context.Context, events []*entity.Event) error
	CreateCheckpoint(ctx context.Context, checkpoint *entity.Checkpoint) error

	// delete functions for reorg/rollback
	DeleteEventsSinceSequence(ctx context.Context, sequence uint64) error
	DeleteCheckpointsSinceSequence(ctx context.Context, sequence uint64) error
}
