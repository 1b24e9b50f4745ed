package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/entity"
)

func (u *Usecase) GetEvents(ctx context.Context, tick string, fromSequence uint64, limit int) ([]*entity.Event, error) {
	events, err := u.dg.GetEvents(ctx, tick, fromSequence, limit)
	if err != nil {
		return nil, errors.Wrap(err, "error during GetEvents")
	}
	return events, nil
}

func (u *Usecase) GetEventByInscriptionId(ctx context.Context, inscriptionId string) (*entity.Event, error) {
	event, err := u.dg.GetEventByInscriptionId(ctx, inscriptionId)
	if err != nil {
		return nil, errors.Wrap(err, "error during GetEventByInscriptionId")
	}
	return event, nil
}
