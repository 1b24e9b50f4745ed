package indexer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/pkg/logger"
	"github.com/gaze-network/brc8888-indexer/pkg/logger/slogx"
)

const (
	// defaultPollingInterval is the default polling interval for the indexer polling worker
	defaultPollingInterval = 15 * time.Second

	defaultBatchSize = 500
)

// Indexer generic indexer for fetching and processing data
type Indexer[T Input] struct {
	Processor     Processor[T]
	Datasource    Datasource[T]
	currentCursor uint64

	pollingInterval time.Duration
	batchSize       int

	quitOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

type Option[T Input] func(*Indexer[T])

func WithPollingInterval[T Input](interval time.Duration) Option[T] {
	return func(i *Indexer[T]) {
		if interval > 0 {
			i.pollingInterval = interval
		}
	}
}

func WithBatchSize[T Input](size int) Option[T] {
	return func(i *Indexer[T]) {
		if size > 0 {
			i.batchSize = size
		}
	}
}

// New create new generic indexer
func New[T Input](processor Processor[T], datasource Datasource[T], opts ...Option[T]) *Indexer[T] {
	i := &Indexer[T]{
		Processor:  processor,
		Datasource: datasource,

		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,

		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Indexer[T]) Shutdown() error {
	return i.ShutdownWithContext(context.Background())
}

func (i *Indexer[T]) ShutdownWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return i.ShutdownWithContext(ctx)
}

func (i *Indexer[T]) ShutdownWithContext(ctx context.Context) (err error) {
	i.quitOnce.Do(func() {
		close(i.quit)
		select {
		case <-i.done:
		case <-time.After(180 * time.Second):
			err = errors.Wrap(errs.Timeout, "indexer shutdown timeout")
		case <-ctx.Done():
			err = errors.Wrap(ctx.Err(), "indexer shutdown context canceled")
		}
	})
	return
}

func (i *Indexer[T]) Run(ctx context.Context) (err error) {
	defer close(i.done)

	ctx = logger.WithContext(ctx,
		slog.String("package", "indexer"),
		slog.String("processor", i.Processor.Name()),
		slog.String("datasource", i.Datasource.Name()),
	)

	i.currentCursor, err = i.Processor.CurrentCursor(ctx)
	if err != nil {
		return errors.Wrap(err, "can't init state, failed to get indexer current cursor")
	}

	// process immediately, then on every tick
	ticker := time.NewTicker(i.pollingInterval)
	defer ticker.Stop()
	for {
		if err := i.process(ctx); err != nil {
			logger.ErrorContext(ctx, "Indexer failed while processing", slogx.Error(err))
			return errors.Wrap(err, "process failed")
		}
		logger.DebugContext(ctx, "Waiting for next polling interval")

		select {
		case <-i.quit:
			logger.InfoContext(ctx, "Got quit signal, stopping indexer")
			if err := i.Processor.Shutdown(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown processor", slogx.Error(err))
				return errors.Wrap(err, "processor shutdown failed")
			}
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (i *Indexer[T]) process(ctx context.Context) error {
	head, err := i.Datasource.Head(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get datasource head")
	}

	// the source was truncated below what we already indexed, e.g. a corrected log
	if head < i.currentCursor {
		logger.WarnContext(ctx, "Datasource head is behind the indexer, reverting data...",
			slogx.String("event", "source_truncated"),
			slogx.Uint64("current_cursor", i.currentCursor),
			slogx.Uint64("head", head),
		)
		start := time.Now()
		if err := i.Processor.RevertData(ctx, head+1); err != nil {
			return errors.Wrap(err, "failed to revert data")
		}
		i.currentCursor, err = i.Processor.CurrentCursor(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to get indexer current cursor after revert")
		}
		logger.InfoContext(ctx, "Reverting data completed",
			slogx.Uint64("current_cursor", i.currentCursor),
			slogx.Duration("duration", time.Since(start)),
		)
	}

	for i.currentCursor < head {
		select {
		case <-i.quit:
			return nil
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		default:
		}

		from := i.currentCursor + 1
		inputs, err := i.Datasource.Fetch(ctx, from, i.batchSize)
		if err != nil {
			return errors.Wrapf(err, "failed to fetch input data, from: %d", from)
		}
		if len(inputs) == 0 {
			return nil
		}

		// validate input is continuous
		for n, input := range inputs {
			if input.Cursor() != from+uint64(n) {
				return errors.Wrapf(errs.InternalError, "input is not continuous, input[%d] cursor: %d, expected: %d", n, input.Cursor(), from+uint64(n))
			}
		}

		startAt := time.Now()
		ctx := logger.WithContext(ctx,
			slogx.Uint64("from", from),
			slogx.Uint64("to", inputs[len(inputs)-1].Cursor()),
			slog.Int("total_inputs", len(inputs)),
		)

		logger.InfoContext(ctx, "Processing inputs")
		if err := i.Processor.Process(ctx, inputs); err != nil {
			return errors.WithStack(err)
		}
		i.currentCursor = inputs[len(inputs)-1].Cursor()

		logger.InfoContext(ctx, "Processed inputs successfully",
			slogx.String("event", "processed_inputs"),
			slogx.Uint64("current_cursor", i.currentCursor),
			slogx.Duration("duration", time.Since(startAt)),
		)
	}
	return nil
}
