package errorhandler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc8888-indexer/common/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: NewHTTPErrorHandler()})
	app.Get("/public", func(*fiber.Ctx) error {
		return errs.WithPublicMessage(errors.New("limit too large"), "validation error")
	})
	app.Get("/missing", func(*fiber.Ctx) error {
		return errors.Wrap(errs.NotFound, "tick \"ABC\"")
	})
	app.Get("/internal", func(*fiber.Ctx) error {
		return errors.New("database is down")
	})

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/public", http.StatusBadRequest, `{"error":"validation error: limit too large"}`},
		{"/missing", http.StatusNotFound, `{"error":"Not Found"}`},
		{"/internal", http.StatusInternalServerError, `{"error":"Internal Server Error"}`},
		{"/unknown", http.StatusNotFound, "Cannot GET /unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.code, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(body))
		})
	}
}
