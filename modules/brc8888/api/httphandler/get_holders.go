package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type getHoldersRequest struct {
	Tick string `params:"tick"`
}

func (r getHoldersRequest) Validate() error {
	var errList []error
	if r.Tick == "" {
		errList = append(errList, errors.New("'tick' is required"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type holdingBalance struct {
	Address string  `json:"address"`
	Amount  string  `json:"amount"`
	Minted  string  `json:"minted"`
	Percent float64 `json:"percent"`
}

type getHoldersResult struct {
	Tick        string           `json:"tick"`
	Supply      string           `json:"supply"`
	TotalMinted string           `json:"totalMinted"`
	List        []holdingBalance `json:"list"`
}

type getHoldersResponse = common.HttpResponse[getHoldersResult]

func (h *HttpHandler) GetHolders(ctx *fiber.Ctx) (err error) {
	var req getHoldersRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	info, err := h.usecase.GetToken(ctx.UserContext(), req.Tick)
	if err != nil {
		return errors.Wrap(err, "error during GetToken")
	}
	holdings, err := h.usecase.GetHolders(ctx.UserContext(), req.Tick)
	if err != nil {
		return errors.Wrap(err, "error during GetHolders")
	}

	supply := decimal.RequireFromString(info.Deploy.Supply.String())
	list := make([]holdingBalance, 0, len(holdings))
	for _, holding := range holdings {
		var percent float64
		if !supply.IsZero() {
			percent = decimal.RequireFromString(holding.Balance.String()).Div(supply).InexactFloat64()
		}
		list = append(list, holdingBalance{
			Address: holding.Address,
			Amount:  amount(holding.Balance),
			Minted:  amount(holding.Minted),
			Percent: percent,
		})
	}

	resp := getHoldersResponse{
		Result: &getHoldersResult{
			Tick:        info.Deploy.Tick,
			Supply:      amount(info.Deploy.Supply),
			TotalMinted: amount(info.TotalMinted),
			List:        list,
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
