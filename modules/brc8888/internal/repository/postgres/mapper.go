package postgres

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/entity"
	"github.com/gaze-network/uint128"
)

type eventModel struct {
	Sequence            int64
	InscriptionId       string
	Op                  string
	Tick                string
	Valid               bool
	Kind                string
	Reason              string
	Address             string
	Amount              string
	BlockHeight         int64
	TxHash              string
	EventHash           []byte
	CumulativeEventHash []byte
	CreatedAt           time.Time
}

type checkpointModel struct {
	Sequence            int64
	BlockHeight         int64
	CumulativeEventHash []byte
	Snapshot            []byte
	CreatedAt           time.Time
}

func mapEventModelToType(src eventModel) (*entity.Event, error) {
	amount, err := uint128.FromString(src.Amount)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid amount %q", src.Amount)
	}
	return &entity.Event{
		Sequence:            uint64(src.Sequence),
		InscriptionId:       src.InscriptionId,
		Op:                  src.Op,
		Tick:                src.Tick,
		Valid:               src.Valid,
		Kind:                src.Kind,
		Reason:              src.Reason,
		Address:             src.Address,
		Amount:              amount,
		BlockHeight:         uint64(src.BlockHeight),
		TxHash:              src.TxHash,
		EventHash:           src.EventHash,
		CumulativeEventHash: src.CumulativeEventHash,
		CreatedAt:           src.CreatedAt,
	}, nil
}

func mapEventTypeToParams(src *entity.Event) []any {
	return []any{
		int64(src.Sequence),
		src.InscriptionId,
		src.Op,
		src.Tick,
		src.Valid,
		src.Kind,
		src.Reason,
		src.Address,
		src.Amount.String(),
		int64(src.BlockHeight),
		src.TxHash,
		src.EventHash,
		src.CumulativeEventHash,
	}
}

func mapCheckpointModelToType(src checkpointModel) *entity.Checkpoint {
	return &entity.Checkpoint{
		Sequence:            uint64(src.Sequence),
		BlockHeight:         uint64(src.BlockHeight),
		CumulativeEventHash: src.CumulativeEventHash,
		Snapshot:            src.Snapshot,
		CreatedAt:           src.CreatedAt,
	}
}
