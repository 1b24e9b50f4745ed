package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/pkg/btcutils"
	"github.com/gofiber/fiber/v2"
)

type getBalancesRequest struct {
	Address string `params:"address"`
}

func (r getBalancesRequest) Validate(network common.Network) error {
	var errList []error
	if r.Address == "" {
		errList = append(errList, errors.New("'address' is required"))
	} else if !btcutils.IsAddress(r.Address, network) {
		errList = append(errList, errors.Errorf("'address' is not a valid %s address", network))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type balance struct {
	Tick          string `json:"tick"`
	Amount        string `json:"amount"`
	Minted        string `json:"minted"`
	LastMintBlock uint64 `json:"lastMintBlock,omitempty"`
}

type getBalancesResult struct {
	Address string    `json:"address"`
	List    []balance `json:"list"`
}

type getBalancesResponse = common.HttpResponse[getBalancesResult]

func (h *HttpHandler) GetBalances(ctx *fiber.Ctx) (err error) {
	var req getBalancesRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(h.network); err != nil {
		return errors.WithStack(err)
	}

	balances, err := h.usecase.GetBalancesByAddress(ctx.UserContext(), req.Address)
	if err != nil {
		return errors.Wrap(err, "error during GetBalancesByAddress")
	}

	list := make([]balance, 0, len(balances))
	for _, b := range balances {
		list = append(list, balance{
			Tick:          b.Tick,
			Amount:        amount(b.Balance),
			Minted:        amount(b.Minted),
			LastMintBlock: b.LastMintBlock,
		})
	}

	resp := getBalancesResponse{
		Result: &getBalancesResult{
			Address: req.Address,
			List:    list,
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
