package indexer

import (
	"context"
	"time"
)

type IndexerWorker interface {
	Shutdown() error
	ShutdownWithTimeout(timeout time.Duration) error
	Run(ctx context.Context) error
}

// Input is one unit of a datasource stream, addressed by a gapless cursor starting at 1.
type Input interface {
	Cursor() uint64
}

type Processor[T Input] interface {
	Name() string

	// Process processes the input data and indexes it.
	Process(ctx context.Context, inputs []T) error

	// CurrentCursor returns the cursor of the latest processed input, or 0 when nothing was processed.
	CurrentCursor(ctx context.Context) (uint64, error)

	// RevertData revert synced data since the specified cursor for re-indexing.
	RevertData(ctx context.Context, from uint64) error

	// VerifyStates verifies the states of the indexed data and the indexer
	// to ensure the last shutdown was graceful and no missing data.
	VerifyStates(ctx context.Context) error

	Shutdown(ctx context.Context) error
}

type Datasource[T Input] interface {
	Name() string

	// Fetch returns up to limit inputs starting at cursor from.
	Fetch(ctx context.Context, from uint64, limit int) ([]T, error)

	// Head returns the cursor of the last available input.
	Head(ctx context.Context) (uint64, error)
}
