package badger

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/entity"
	"github.com/gaze-network/uint128"
)

type eventRecord struct {
	Sequence            uint64    `json:"sequence"`
	InscriptionId       string    `json:"inscription_id"`
	Op                  string    `json:"op"`
	Tick                string    `json:"tick"`
	Valid               bool      `json:"valid"`
	Kind                string    `json:"kind,omitempty"`
	Reason              string    `json:"reason"`
	Address             string    `json:"address,omitempty"`
	Amount              string    `json:"amount"`
	BlockHeight         uint64    `json:"block_height"`
	TxHash              string    `json:"tx_hash,omitempty"`
	EventHash           []byte    `json:"event_hash"`
	CumulativeEventHash []byte    `json:"cumulative_event_hash"`
	CreatedAt           time.Time `json:"created_at"`
}

func newEventRecord(src *entity.Event, now time.Time) eventRecord {
	return eventRecord{
		Sequence:            src.Sequence,
		InscriptionId:       src.InscriptionId,
		Op:                  src.Op,
		Tick:                src.Tick,
		Valid:               src.Valid,
		Kind:                src.Kind,
		Reason:              src.Reason,
		Address:             src.Address,
		Amount:              src.Amount.String(),
		BlockHeight:         src.BlockHeight,
		TxHash:              src.TxHash,
		EventHash:           src.EventHash,
		CumulativeEventHash: src.CumulativeEventHash,
		CreatedAt:           now,
	}
}

func (r eventRecord) toEntity() (*entity.Event, error) {
	amount, err := uint128.FromString(r.Amount)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid amount %q of event %d", r.Amount, r.Sequence)
	}
	return &entity.Event{
		Sequence:            r.Sequence,
		InscriptionId:       r.InscriptionId,
		Op:                  r.Op,
		Tick:                r.Tick,
		Valid:               r.Valid,
		Kind:                r.Kind,
		Reason:              r.Reason,
		Address:             r.Address,
		Amount:              amount,
		BlockHeight:         r.BlockHeight,
		TxHash:              r.TxHash,
		EventHash:           r.EventHash,
		CumulativeEventHash: r.CumulativeEventHash,
		CreatedAt:           r.CreatedAt,
	}, nil
}

type checkpointRecord struct {
	Sequence            uint64    `json:"sequence"`
	BlockHeight         uint64    `json:"block_height"`
	CumulativeEventHash []byte    `json:"cumulative_event_hash"`
	Snapshot            []byte    `json:"snapshot"`
	CreatedAt           time.Time `json:"created_at"`
}

type indexerStateRecord struct {
	ClientVersion    string    `json:"client_version"`
	DBVersion        int32     `json:"db_version"`
	EventHashVersion int32     `json:"event_hash_version"`
	Network          string    `json:"network"`
	CreatedAt        time.Time `json:"created_at"`
}

func (r indexerStateRecord) toEntity() entity.IndexerState {
	return entity.IndexerState{
		CreatedAt:        r.CreatedAt,
		ClientVersion:    r.ClientVersion,
		DBVersion:        r.DBVersion,
		EventHashVersion: r.EventHashVersion,
		Network:          common.Network(r.Network),
	}
}
