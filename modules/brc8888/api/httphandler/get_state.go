package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gofiber/fiber/v2"
)

type getStateResult struct {
	Network             common.Network `json:"network"`
	Sequence            uint64         `json:"sequence"`
	CumulativeEventHash string         `json:"cumulativeEventHash"`
	LatestCheckpoint    uint64         `json:"latestCheckpoint"`
	TickerCount         int            `json:"tickerCount"`
}

type getStateResponse = common.HttpResponse[getStateResult]

func (h *HttpHandler) GetState(ctx *fiber.Ctx) (err error) {
	state, err := h.usecase.GetState(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during GetState")
	}

	resp := getStateResponse{
		Result: &getStateResult{
			Network:             h.network,
			Sequence:            state.Sequence,
			CumulativeEventHash: hexOrEmpty(state.CumulativeEventHash),
			LatestCheckpoint:    state.LatestCheckpoint,
			TickerCount:         state.TickerCount,
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
