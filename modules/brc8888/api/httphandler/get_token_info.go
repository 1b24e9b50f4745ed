package httphandler

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type getTokenInfoRequest struct {
	Tick string `params:"tick"`
}

func (r getTokenInfoRequest) Validate() error {
	var errList []error
	if r.Tick == "" {
		errList = append(errList, errors.New("'tick' is required"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

type phaseResult struct {
	StartMinted string `json:"startMinted"`
	EndMinted   string `json:"endMinted"`
	PriceSats   string `json:"priceSats"`
}

type exemptResult struct {
	Address               string `json:"address"`
	Role                  string `json:"role,omitempty"`
	Amount                string `json:"amount"`
	LockUntilPublicMinted string `json:"lockUntilPublicMinted,omitempty"`
	VestingStart          *int64 `json:"vestingStart,omitempty"`
	VestingCliffDays      uint32 `json:"vestingCliffDays,omitempty"`
	VestingDurationDays   uint32 `json:"vestingDurationDays,omitempty"`
}

type feesResult struct {
	DeployCreationFeeSats string `json:"deployCreationFeeSats"`
	ProtocolFeePercent    uint8  `json:"protocolFeePercent"`
	CreatorFeeAddress     string `json:"creatorFeeAddress,omitempty"`
	ProtocolFeeAddress    string `json:"protocolFeeAddress,omitempty"`
	ReserveAddress        string `json:"reserveAddress,omitempty"`
}

type getTokenInfoResult struct {
	Tick            string         `json:"tick"`
	DeployId        string         `json:"deployId"`
	Genesis         bool           `json:"genesis"`
	Supply          string         `json:"supply"`
	TotalMinted     string         `json:"totalMinted"`
	HolderCount     int            `json:"holderCount"`
	CurrentPrice    *string        `json:"currentPriceSats"`
	UserCap         string         `json:"userCap"`
	CooldownBlocks  uint64         `json:"cooldownBlocks"`
	Phases          []phaseResult  `json:"phases"`
	Exempt          []exemptResult `json:"exempt"`
	Fees            feesResult     `json:"fees"`
	DerivedReserve  string         `json:"derivedReserve,omitempty"`
	DerivedTreasury string         `json:"derivedTreasury,omitempty"`
	Deployer        string         `json:"deployer"`
	DeployTxHash    string         `json:"deployTxHash,omitempty"`
	DeployedAt      uint64         `json:"deployedAtBlock"`
	DeployTimestamp int64          `json:"deployTimestamp"`
	LineageDepth    int            `json:"lineageDepth"`
	LineageHead     string         `json:"lineageHead,omitempty"`
}

type getTokenInfoResponse = common.HttpResponse[getTokenInfoResult]

func (h *HttpHandler) GetTokenInfo(ctx *fiber.Ctx) (err error) {
	var req getTokenInfoRequest
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

	resp := getTokenInfoResponse{
		Result: lo.ToPtr(mapTokenInfo(info)),
	}
	return errors.WithStack(ctx.JSON(resp))
}

func mapTokenInfo(info *usecase.TokenInfo) getTokenInfoResult {
	deploy := info.Deploy
	result := getTokenInfoResult{
		Tick:           deploy.Tick,
		DeployId:       deploy.InscriptionId,
		Genesis:        deploy.Genesis,
		Supply:         amount(deploy.Supply),
		TotalMinted:    amount(info.TotalMinted),
		HolderCount:    info.HolderCount,
		UserCap:        amount(deploy.Rules.UserCap),
		CooldownBlocks: deploy.Rules.CooldownBlocks,
		Phases:         make([]phaseResult, 0, len(deploy.Rules.Phases)),
		Exempt:         make([]exemptResult, 0, len(deploy.Rules.ExemptAddrs)),
		Fees: feesResult{
			DeployCreationFeeSats: amount(deploy.Fees.DeployCreationFeeSats),
			ProtocolFeePercent:    deploy.Fees.ProtocolFeePercent,
			CreatorFeeAddress:     deploy.Fees.CreatorFeeAddress,
			ProtocolFeeAddress:    deploy.Fees.ProtocolFeeAddress,
			ReserveAddress:        deploy.Fees.ReserveAddress,
		},
		DerivedReserve:  deploy.DerivedReserve,
		DerivedTreasury: deploy.DerivedTreasury,
		Deployer:        deploy.Deployer,
		DeployTxHash:    deploy.TxHash,
		DeployedAt:      deploy.BlockHeight,
		DeployTimestamp: lo.Ternary(deploy.Timestamp.IsZero(), 0, deploy.Timestamp.Unix()),
		LineageDepth:    info.LineageDepth,
		LineageHead:     info.LineageHead,
	}
	if info.CurrentPrice != nil {
		result.CurrentPrice = lo.ToPtr(amount(*info.CurrentPrice))
	}
	for _, phase := range deploy.Rules.Phases {
		result.Phases = append(result.Phases, phaseResult{
			StartMinted: amount(phase.StartMinted),
			EndMinted:   amount(phase.EndMinted),
			PriceSats:   amount(phase.PriceSats),
		})
	}
	for _, entry := range deploy.Rules.ExemptAddrs {
		exempt := exemptResult{
			Address: entry.Address,
			Role:    entry.Role,
			Amount:  amount(entry.Amount),
		}
		if !entry.LockUntilPublicMinted.IsZero() {
			exempt.LockUntilPublicMinted = amount(entry.LockUntilPublicMinted)
		}
		if v := entry.Vesting; v != nil {
			exempt.VestingStart = lo.ToPtr(v.Start.In(time.UTC).Unix())
			exempt.VestingCliffDays = v.CliffDays
			exempt.VestingDurationDays = v.DurationDays
		}
		result.Exempt = append(result.Exempt, exempt)
	}
	return result
}

type getTokensResult struct {
	List []getTokenInfoResult `json:"list"`
}

type getTokensResponse = common.HttpResponse[getTokensResult]

func (h *HttpHandler) GetTokens(ctx *fiber.Ctx) (err error) {
	infos, err := h.usecase.GetTokens(ctx.UserContext())
	if err != nil {
		return errors.Wrap(err, "error during GetTokens")
	}

	resp := getTokensResponse{
		Result: &getTokensResult{
			List: lo.Map(infos, func(info *usecase.TokenInfo, _ int) getTokenInfoResult {
				return mapTokenInfo(info)
			}),
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
