package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

const (
	getEventsDefaultLimit = 100
	getEventsMaxLimit     = 1000
)

type getEventsRequest struct {
	Tick  string `query:"tick"`
	From  uint64 `query:"from"`
	Limit int    `query:"limit"`
}

func (r getEventsRequest) Validate() error {
	var errList []error
	if r.Limit < 0 {
		errList = append(errList, errors.New("'limit' must be non-negative"))
	}
	if r.Limit > getEventsMaxLimit {
		errList = append(errList, errors.Errorf("'limit' must be less than or equal to %d", getEventsMaxLimit))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

func (r *getEventsRequest) ParseDefault() {
	if r.Limit == 0 {
		r.Limit = getEventsDefaultLimit
	}
	if r.From == 0 {
		r.From = 1
	}
}

type event struct {
	Sequence            uint64 `json:"sequence"`
	InscriptionId       string `json:"inscriptionId"`
	Op                  string `json:"op"`
	Tick                string `json:"tick"`
	Valid               bool   `json:"valid"`
	Kind                string `json:"kind,omitempty"`
	Reason              string `json:"reason"`
	Address             string `json:"address,omitempty"`
	Amount              string `json:"amount"`
	BlockHeight         uint64 `json:"blockHeight"`
	TxHash              string `json:"txHash,omitempty"`
	EventHash           string `json:"eventHash"`
	CumulativeEventHash string `json:"cumulativeEventHash"`
	Timestamp           int64  `json:"timestamp"`
}

func mapEvent(e *entity.Event) event {
	return event{
		Sequence:            e.Sequence,
		InscriptionId:       e.InscriptionId,
		Op:                  e.Op,
		Tick:                e.Tick,
		Valid:               e.Valid,
		Kind:                e.Kind,
		Reason:              e.Reason,
		Address:             e.Address,
		Amount:              amount(e.Amount),
		BlockHeight:         e.BlockHeight,
		TxHash:              e.TxHash,
		EventHash:           hexOrEmpty(e.EventHash),
		CumulativeEventHash: hexOrEmpty(e.CumulativeEventHash),
		Timestamp:           e.CreatedAt.Unix(),
	}
}

type getEventsResult struct {
	List []event `json:"list"`
	// Next is the sequence to continue from, 0 when there are no more events.
	Next uint64 `json:"next"`
}

type getEventsResponse = common.HttpResponse[getEventsResult]

func (h *HttpHandler) GetEvents(ctx *fiber.Ctx) (err error) {
	var req getEventsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}
	req.ParseDefault()

	events, err := h.usecase.GetEvents(ctx.UserContext(), req.Tick, req.From, req.Limit)
	if err != nil {
		return errors.Wrap(err, "error during GetEvents")
	}

	result := &getEventsResult{
		List: lo.Map(events, func(e *entity.Event, _ int) event {
			return mapEvent(e)
		}),
	}
	if len(events) == req.Limit {
		result.Next = events[len(events)-1].Sequence + 1
	}

	resp := getEventsResponse{
		Result: result,
	}
	return errors.WithStack(ctx.JSON(resp))
}

type getEventRequest struct {
	InscriptionId string `params:"inscriptionId"`
}

type getEventResponse = common.HttpResponse[event]

func (h *HttpHandler) GetEvent(ctx *fiber.Ctx) (err error) {
	var req getEventRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}

	e, err := h.usecase.GetEventByInscriptionId(ctx.UserContext(), req.InscriptionId)
	if err != nil {
		return errors.Wrap(err, "error during GetEventByInscriptionId")
	}

	resp := getEventResponse{
		Result: lo.ToPtr(mapEvent(e)),
	}
	return errors.WithStack(ctx.JSON(resp))
}
