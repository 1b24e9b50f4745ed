package brc8888

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/core/indexer"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/brc8888"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/datagateway"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/entity"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/oplog"
	"github.com/gaze-network/brc8888-indexer/pkg/logger"
	"github.com/gaze-network/brc8888-indexer/pkg/logger/slogx"
)

// Make sure to implement the indexer Processor interface
var _ indexer.Processor[*oplog.Record] = (*Processor)(nil)

type Processor struct {
	// mu guards the validator and the processor states below, the HTTP API reads them concurrently.
	mu sync.RWMutex

	brc8888Dg          datagateway.BRC8888DataGateway
	indexerInfoDg      datagateway.IndexerInfoDataGateway
	validatorConfig    brc8888.Config
	validatorOpts      []brc8888.Option
	network            common.Network
	checkpointInterval uint64
	cleanupFuncs       []func(context.Context) error

	// processor states
	validator           *brc8888.Validator
	sequence            uint64
	lastCheckpoint      uint64
	cumulativeEventHash []byte

	// flush buffers
	newEvents []*entity.Event
}

func NewProcessor(brc8888Dg datagateway.BRC8888DataGateway, indexerInfoDg datagateway.IndexerInfoDataGateway, validatorConfig brc8888.Config, network common.Network, checkpointInterval uint64, cleanupFuncs []func(context.Context) error, opts ...brc8888.Option) *Processor {
	if checkpointInterval == 0 {
		checkpointInterval = defaultCheckpointInterval
	}
	return &Processor{
		brc8888Dg:          brc8888Dg,
		indexerInfoDg:      indexerInfoDg,
		validatorConfig:    validatorConfig,
		validatorOpts:      opts,
		network:            network,
		checkpointInterval: checkpointInterval,
		cleanupFuncs:       cleanupFuncs,

		validator: brc8888.NewValidator(validatorConfig, opts...), // to be restored by p.VerifyStates()
		newEvents: make([]*entity.Event, 0),
	}
}

// VerifyStates implements indexer.Processor.
func (p *Processor) VerifyStates(ctx context.Context) error {
	indexerState, err := p.indexerInfoDg.GetLatestIndexerState(ctx)
	if err != nil && !errors.Is(err, errs.NotFound) {
		return errors.Wrap(err, "failed to get latest indexer state")
	}
	// if not found, create indexer state
	if errors.Is(err, errs.NotFound) {
		if err := p.indexerInfoDg.CreateIndexerState(ctx, entity.IndexerState{
			ClientVersion:    ClientVersion,
			DBVersion:        DBVersion,
			EventHashVersion: EventHashVersion,
			Network:          p.network,
		}); err != nil {
			return errors.Wrap(err, "failed to set indexer state")
		}
	} else {
		if indexerState.DBVersion != DBVersion {
			return errors.Wrapf(errs.ConflictSetting, "db version mismatch: current version is %d. Please upgrade to version %d", indexerState.DBVersion, DBVersion)
		}
		if indexerState.EventHashVersion != EventHashVersion {
			return errors.Wrapf(errs.ConflictSetting, "event version mismatch: current version is %d. Please reset brc8888's db first to use version %d", indexerState.EventHashVersion, EventHashVersion)
		}
		if indexerState.Network != p.network {
			return errors.Wrapf(errs.ConflictSetting, "network mismatch: latest indexed network is %s, configured network is %s. If you want to change the network, please reset the database", indexerState.Network, p.network)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	checkpoint, err := p.brc8888Dg.GetLatestCheckpoint(ctx)
	if err != nil {
		if !errors.Is(err, errs.NotFound) {
			return errors.Wrap(err, "failed to get latest checkpoint")
		}
		checkpoint = nil
	}

	// events past the checkpoint have no persisted ledger state, they are re-derived from the log
	latestEvent, err := p.brc8888Dg.GetLatestEvent(ctx)
	if err != nil && !errors.Is(err, errs.NotFound) {
		return errors.Wrap(err, "failed to get latest event")
	}
	if latestEvent != nil && latestEvent.Sequence > checkpointSequence(checkpoint) {
		logger.InfoContext(ctx, "Discarding events after the latest checkpoint",
			slogx.Uint64("checkpoint", checkpointSequence(checkpoint)),
			slogx.Uint64("latest_event", latestEvent.Sequence),
		)
		if err := p.brc8888Dg.DeleteEventsSinceSequence(ctx, checkpointSequence(checkpoint)+1); err != nil {
			return errors.Wrap(err, "failed to delete events after checkpoint")
		}
	}

	if err := p.restore(checkpoint); err != nil {
		return errors.WithStack(err)
	}
	logger.InfoContext(ctx, "Restored ledger state",
		slogx.Uint64("sequence", p.sequence),
		slogx.Int("tickers", len(p.validator.Ledger().Tickers())),
	)
	return nil
}

// restore resets the processor states to checkpoint, nil restores the empty ledger.
func (p *Processor) restore(checkpoint *entity.Checkpoint) error {
	p.newEvents = p.newEvents[:0]
	if checkpoint == nil {
		p.validator = brc8888.NewValidator(p.validatorConfig, p.validatorOpts...)
		p.sequence = 0
		p.lastCheckpoint = 0
		p.cumulativeEventHash = nil
		return nil
	}

	var snapshot brc8888.LedgerSnapshot
	if err := json.Unmarshal(checkpoint.Snapshot, &snapshot); err != nil {
		return errors.Wrapf(err, "failed to decode checkpoint %d", checkpoint.Sequence)
	}
	ledger, err := brc8888.RestoreLedger(&snapshot)
	if err != nil {
		return errors.Wrapf(err, "failed to restore checkpoint %d", checkpoint.Sequence)
	}
	opts := append(append([]brc8888.Option{}, p.validatorOpts...), brc8888.WithLedger(ledger))
	p.validator = brc8888.NewValidator(p.validatorConfig, opts...)
	p.sequence = checkpoint.Sequence
	p.lastCheckpoint = checkpoint.Sequence
	p.cumulativeEventHash = checkpoint.CumulativeEventHash
	return nil
}

func checkpointSequence(checkpoint *entity.Checkpoint) uint64 {
	if checkpoint == nil {
		return 0
	}
	return checkpoint.Sequence
}

// Name implements indexer.Processor.
func (p *Processor) Name() string {
	return "brc8888"
}

// CurrentCursor implements indexer.Processor.
func (p *Processor) CurrentCursor(_ context.Context) (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sequence, nil
}

// Process implements indexer.Processor.
func (p *Processor) Process(ctx context.Context, records []*oplog.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, record := range records {
		if record.Sequence <= p.sequence {
			continue
		}
		if record.Sequence != p.sequence+1 {
			return errors.Wrapf(errs.InternalError, "operation log is not continuous, expected sequence %d, got %d", p.sequence+1, record.Sequence)
		}

		op := record.Operation
		result, err := p.validator.Apply(ctx, op)
		if err != nil {
			// keep what was processed so far, the failed operation is retried on the next run
			if err := p.flush(ctx, false); err != nil {
				logger.ErrorContext(ctx, "Failed to flush events", slogx.Error(err))
			}
			return errors.Wrapf(err, "failed to apply operation %d (%s)", record.Sequence, op.InscriptionId)
		}

		event := newEvent(record.Sequence, op, result)
		hashEvent(event, p.cumulativeEventHash)
		p.newEvents = append(p.newEvents, event)
		p.cumulativeEventHash = event.CumulativeEventHash
		p.sequence = record.Sequence

		if !result.Valid {
			logger.DebugContext(ctx, "Rejected operation",
				slogx.String("event", "rejected_operation"),
				slogx.Uint64("sequence", record.Sequence),
				slogx.String("inscription_id", op.InscriptionId),
				slogx.String("tick", result.Tick),
				slogx.String("reason", result.Reason),
			)
		}

		if p.sequence-p.lastCheckpoint >= p.checkpointInterval {
			if err := p.flush(ctx, true); err != nil {
				return errors.Wrap(err, "failed to flush checkpoint")
			}
		}
	}

	if err := p.flush(ctx, false); err != nil {
		return errors.Wrap(err, "failed to flush events")
	}
	return nil
}

// flush persists buffered events, and a checkpoint of the current ledger when withCheckpoint is set.
func (p *Processor) flush(ctx context.Context, withCheckpoint bool) (err error) {
	if len(p.newEvents) == 0 && !withCheckpoint {
		return nil
	}

	brc8888DgTx, err := p.brc8888Dg.BeginBRC8888Tx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := brc8888DgTx.Rollback(ctx); err != nil {
			logger.WarnContext(ctx, "failed to rollback transaction",
				slogx.Error(err),
				slogx.String("event", "rollback_brc8888_insertion"),
			)
		}
	}()

	if len(p.newEvents) > 0 {
		if err := brc8888DgTx.CreateEvents(ctx, p.newEvents); err != nil {
			return errors.Wrap(err, "failed to create events")
		}
	}

	var checkpoint *entity.Checkpoint
	if withCheckpoint {
		snapshot, err := json.Marshal(p.validator.Ledger().Snapshot())
		if err != nil {
			return errors.Wrap(err, "failed to encode ledger snapshot")
		}
		checkpoint = &entity.Checkpoint{
			Sequence:            p.sequence,
			BlockHeight:         p.lastBlockHeight(),
			CumulativeEventHash: p.cumulativeEventHash,
			Snapshot:            snapshot,
		}
		if err := brc8888DgTx.CreateCheckpoint(ctx, checkpoint); err != nil {
			return errors.Wrap(err, "failed to create checkpoint")
		}
	}

	if err := brc8888DgTx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	p.newEvents = p.newEvents[:0]
	if checkpoint != nil {
		p.lastCheckpoint = checkpoint.Sequence
		logger.InfoContext(ctx, "Created checkpoint",
			slogx.String("event", "checkpoint"),
			slogx.Uint64("sequence", checkpoint.Sequence),
			slogx.Uint64("block_height", checkpoint.BlockHeight),
			slogx.Int("snapshot_size", len(checkpoint.Snapshot)),
		)
	}
	return nil
}

func (p *Processor) lastBlockHeight() uint64 {
	if len(p.newEvents) > 0 {
		return p.newEvents[len(p.newEvents)-1].BlockHeight
	}
	return 0
}

// RevertData implements indexer.Processor. It drops every event and checkpoint
// since sequence from and restores the latest checkpoint below it.
func (p *Processor) RevertData(ctx context.Context, from uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	checkpoint, err := p.brc8888Dg.GetLatestCheckpointBefore(ctx, from)
	if err != nil {
		if !errors.Is(err, errs.NotFound) {
			return errors.Wrap(err, "failed to get checkpoint")
		}
		checkpoint = nil
	}

	brc8888DgTx, err := p.brc8888Dg.BeginBRC8888Tx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := brc8888DgTx.Rollback(ctx); err != nil {
			logger.WarnContext(ctx, "failed to rollback transaction",
				slogx.Error(err),
				slogx.String("event", "rollback_brc8888_revert"),
			)
		}
	}()

	if err := brc8888DgTx.DeleteCheckpointsSinceSequence(ctx, from); err != nil {
		return errors.Wrap(err, "failed to delete checkpoints")
	}
	if err := brc8888DgTx.DeleteEventsSinceSequence(ctx, checkpointSequence(checkpoint)+1); err != nil {
		return errors.Wrap(err, "failed to delete events")
	}
	if err := brc8888DgTx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return errors.WithStack(p.restore(checkpoint))
}

// View calls fn with the current ledger under a read lock. fn must not retain the ledger.
func (p *Processor) View(fn func(ledger *brc8888.Ledger) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return fn(p.validator.Ledger())
}

// CurrentState returns the latest processed sequence and its cumulative event hash.
func (p *Processor) CurrentState() (sequence uint64, cumulativeEventHash []byte) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sequence, p.cumulativeEventHash
}

func (p *Processor) Shutdown(ctx context.Context) error {
	var errs []error
	for _, cleanup := range p.cleanupFuncs {
		if err := cleanup(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.WithStack(errors.Join(errs...))
}
