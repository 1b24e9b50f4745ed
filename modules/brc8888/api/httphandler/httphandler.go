package httphandler

import (
	"encoding/hex"

	"github.com/gaze-network/brc8888-indexer/common"
	"github.com/gaze-network/brc8888-indexer/modules/brc8888/internal/usecase"
	"github.com/gaze-network/uint128"
)

type HttpHandler struct {
	usecase *usecase.Usecase
	network common.Network
}

func New(network common.Network, usecase *usecase.Usecase) *HttpHandler {
	return &HttpHandler{
		network: network,
		usecase: usecase,
	}
}

// amounts are decimal strings, they do not fit JSON numbers
func amount(v uint128.Uint128) string {
	return v.String()
}

func hexOrEmpty(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return hex.EncodeToString(b)
}
