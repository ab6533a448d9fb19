package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"fundledger-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, 409, StatusFor(fmt.Errorf("%w: need 5", domain.ErrInsufficientQuotas)))
	assert.Equal(t, 422, StatusFor(domain.Invalid("bad")))
	assert.Equal(t, 404, StatusFor(domain.ErrNotFound))
	assert.Equal(t, 403, StatusFor(domain.ErrNotAuthorized))
	assert.Equal(t, 409, StatusFor(domain.ErrConcurrentUpdate))
	assert.Equal(t, 500, StatusFor(errors.New("db down")))
}

func TestLedgerError_HidesInternalMessage(t *testing.T) {
	app := fiber.New()
	app.Get("/conflict", func(c *fiber.Ctx) error { return LedgerError(c, domain.ErrInsufficientQuotas) })
	app.Get("/internal", func(c *fiber.Ctx) error { return LedgerError(c, errors.New("pq: secret detail")) })

	resp, err := app.Test(httptest.NewRequest("GET", "/conflict", nil))
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/internal", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	var out ErrorBody
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "error", out.Status)
	assert.Equal(t, "Internal Server Error", out.Error.Message)
}
