package brc8888

import (
	"context"
	"encoding/hex"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/addressresolver"
	brc8888config "github.com/gaze-network/brc8888-indexer/modules/brc8888/config"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/brc8888"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/oplog"
	"github.com/samber/lo"
)

// ReplayReport is the stateless validation of a whole operation log.
type ReplayReport struct {
	Operations          []ReplayedOperation     `json:"operations"`
	Accepted            int                     `json:"accepted"`
	Rejected            int                     `json:"rejected"`
	CumulativeEventHash string                  `json:"cumulativeEventHash"`
	State               *brc8888.LedgerSnapshot `json:"state,omitempty"`
}

type ReplayedOperation struct {
	Sequence      uint64 `json:"sequence"`
	InscriptionId string `json:"inscriptionId"`
	Op            string `json:"op"`
	Tick          string `json:"tick"`
	Valid         bool   `json:"valid"`
	Kind          string `json:"kind,omitempty"`
	Reason        string `json:"reason"`
	Address       string `json:"address,omitempty"`
	Amount        string `json:"amount"`
	EventHash     string `json:"eventHash"`
}

// ReplayFile validates every operation of the log at path against a fresh
// ledger. Reduced-payload deploys resolve their addresses from the
// transactions recorded in the log. With workers above one the log is
// validated in ticker shards, the report is identical either way.
func ReplayFile(ctx context.Context, path string, network common.Network, moduleConf brc8888config.Config, workers int, withState bool) (*ReplayReport, error) {
	records, err := oplog.ReadFile(ctx, path, network, 1, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read operation log")
	}
	ops := lo.Map(records, func(record *oplog.Record, _ int) *brc8888.Operation { return record.Operation })

	var opts []brc8888.Option
	validatorConfig := NewValidatorConfig(moduleConf)
	if validatorConfig.ReducedPayload {
		resolver := addressresolver.NewStaticResolver(lo.Map(ops, func(op *brc8888.Operation, _ int) brc8888.TxView { return op.Tx })...)
		opts = append(opts, brc8888.WithAddressResolver(resolver))
	}

	results, ledger, err := brc8888.ReplaySharded(ctx, validatorConfig, ops, workers, opts...)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	report := &ReplayReport{
		Operations: make([]ReplayedOperation, 0, len(records)),
	}
	var cumulative []byte
	for i, record := range records {
		event := newEvent(record.Sequence, record.Operation, results[i])
		hashEvent(event, cumulative)
		cumulative = event.CumulativeEventHash

		report.Operations = append(report.Operations, ReplayedOperation{
			Sequence:      event.Sequence,
			InscriptionId: event.InscriptionId,
			Op:            event.Op,
			Tick:          event.Tick,
			Valid:         event.Valid,
			Kind:          event.Kind,
			Reason:        event.Reason,
			Address:       event.Address,
			Amount:        event.Amount.String(),
			EventHash:     hex.EncodeToString(event.EventHash),
		})
		if event.Valid {
			report.Accepted++
		} else {
			report.Rejected++
		}
	}
	report.CumulativeEventHash = hex.EncodeToString(cumulative)
	if withState {
		report.State = ledger.Snapshot()
	}
	return report, nil
}
