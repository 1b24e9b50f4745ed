package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gofiber/fiber/v2"
)

type getLineageRequest struct {
	Tick string `params:"tick"`
}

func (r getLineageRequest) Validate() error {
	var errList []error
	if r.Tick == "" {
		errList = append(errList, errors.New("'tick' is required"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type lineageEntry struct {
	InscriptionId string `json:"inscriptionId"`
	Ref           string `json:"ref"`
	MerkleRoot    string `json:"merkleRoot"`
	ProofURI      string `json:"proofUri,omitempty"`
	TxHash        string `json:"txHash,omitempty"`
	BlockHeight   uint64 `json:"blockHeight"`
}

type getLineageResult struct {
	Tick string         `json:"tick"`
	List []lineageEntry `json:"list"`
}

type getLineageResponse = common.HttpResponse[getLineageResult]

func (h *HttpHandler) GetLineage(ctx *fiber.Ctx) (err error) {
	var req getLineageRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	lineage, err := h.usecase.GetLineage(ctx.UserContext(), req.Tick)
	if err != nil {
		return errors.Wrap(err, "error during GetLineage")
	}

	list := make([]lineageEntry, 0, len(lineage))
	for _, entry := range lineage {
		list = append(list, lineageEntry(entry))
	}

	resp := getLineageResponse{
		Result: &getLineageResult{
			Tick: req.Tick,
			List: list,
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
