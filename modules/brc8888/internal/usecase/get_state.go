package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common/errs"
)

type State struct {
	Sequence            uint64
	CumulativeEventHash []byte
	// LatestCheckpoint is 0 when no checkpoint was taken yet.
	LatestCheckpoint uint64
	TickerCount      int
}

func (u *Usecase) GetState(ctx context.Context) (*State, error) {
	sequence, hash := u.ledger.CurrentState()
	state := &State{
		Sequence:            sequence,
		CumulativeEventHash: hash,
	}

	checkpoint, err := u.dg.GetLatestCheckpoint(ctx)
	if err != nil && !errors.Is(err, errs.NotFound) {
		return nil, errors.Wrap(err, "error during GetLatestCheckpoint")
	}
	if checkpoint != nil {
		state.LatestCheckpoint = checkpoint.Sequence
	}

	tokens, err := u.GetTokens(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	state.TickerCount = len(tokens)
	return state, nil
}
