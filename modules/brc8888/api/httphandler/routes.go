package httphandler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *HttpHandler) Mount(router fiber.Router) error {
	r := router.Group("/v1/brc8888")

	r.Get("/tokens", h.GetTokens)
	r.Get("/tokens/:tick", h.GetTokenInfo)
	r.Get("/tokens/:tick/holders", h.GetHolders)
	r.Get("/tokens/:tick/lineage", h.GetLineage)
	r.Get("/balances/:address", h.GetBalances)
	r.Get("/events", h.GetEvents)
	r.Get("/events/:inscriptionId", h.GetEvent)
	r.Get("/state", h.GetState)
	return nil
}
