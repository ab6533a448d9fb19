package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fundledger-backend/internal/config"
	"fundledger-backend/internal/constants"
	"fundledger-backend/internal/infrastructure/database/databasetest"
	"fundledger-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t      *testing.T
	app    *fiber.App
	cookie string
}

func (c *client) call(method, path string, body interface{}) (int, map[string]interface{}) {
	c.t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != "" {
		req.Header.Set("Cookie", middleware.SessionCookieName+"="+c.cookie)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	var out map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func setupApp(t *testing.T) (*fiber.App, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	db := databasetest.New(t)
	return NewApp(&config.Config{LedgerMaxRetries: 2, HealthAdminKey: "k"}, db, rdb), mr
}

func login(t *testing.T, mr *miniredis.Miniredis, role string) string {
	sid := uuid.New().String()
	b, _ := json.Marshal(map[string]interface{}{
		"user": map[string]interface{}{"user_id": uuid.New().String(), "role": role},
	})
	require.NoError(t, mr.Set(middleware.SessionRedisPrefix+sid, string(b)))
	return "s:" + sid
}

func field(out map[string]interface{}, key string) string {
	return out["data"].(map[string]interface{})[key].(string)
}

func TestLedgerFlowThroughRouter(t *testing.T) {
	app, mr := setupApp(t)
	c := &client{t: t, app: app, cookie: login(t, mr, constants.Manager)}

	code, out := c.call("POST", "/api/v1/portfolios/create-portfolio", map[string]interface{}{"name": "Pension"})
	require.Equal(t, 201, code)
	portfolioID := field(out, "portfolio_id")

	code, out = c.call("POST", "/api/v1/holdings/open-holding", map[string]interface{}{
		"portfolio_id": portfolioID, "fund_id": uuid.New().String(),
	})
	require.Equal(t, 201, code)
	holdingID := field(out, "holding_id")

	code, _ = c.call("POST", "/api/v1/lots/create-lot", map[string]interface{}{
		"holding_id": holdingID, "request_date": "2024-01-10", "value": "1000", "quotas": "100", "unit_price": "10",
	})
	require.Equal(t, 201, code)

	code, out = c.call("POST", "/api/v1/withdrawals/create-withdrawal", map[string]interface{}{
		"holding_id": holdingID, "request_date": "2024-06-01", "target_quotas": "40", "target_value": "480",
	})
	require.Equal(t, 201, code)
	assert.True(t, decimal.RequireFromString(field(out, "allocated_value")).Equal(decimal.NewFromInt(400)))

	code, out = c.call("GET", "/api/v1/holdings/"+holdingID, nil)
	require.Equal(t, 200, code)
	assert.True(t, decimal.RequireFromString(field(out, "quota_total")).Equal(decimal.NewFromInt(60)))
	assert.True(t, decimal.RequireFromString(field(out, "invested_total")).Equal(decimal.NewFromInt(600)))

	code, out = c.call("GET", "/api/v1/holdings/"+holdingID+"/reconcile", nil)
	require.Equal(t, 200, code)
	assert.Equal(t, true, out["data"].(map[string]interface{})["balanced"])

	code, _ = c.call("POST", "/api/v1/withdrawals/create-withdrawal", map[string]interface{}{
		"holding_id": holdingID, "request_date": "2024-06-02", "target_quotas": "61", "target_value": "700",
	})
	assert.Equal(t, 409, code)
}

func TestRoutesRequireSessionAndPermission(t *testing.T) {
	app, mr := setupApp(t)

	anon := &client{t: t, app: app}
	code, _ := anon.call("GET", "/api/v1/portfolios/view-portfolios", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	viewer := &client{t: t, app: app, cookie: login(t, mr, constants.Viewer)}
	code, _ = viewer.call("GET", "/api/v1/portfolios/view-portfolios", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = viewer.call("POST", "/api/v1/portfolios/create-portfolio", map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusForbidden, code)

	code, out := anon.call("GET", "/health/json", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out["status"])
}

func TestReadsScopedToPortfolioOwner(t *testing.T) {
	app, mr := setupApp(t)
	owner := &client{t: t, app: app, cookie: login(t, mr, constants.Manager)}

	code, out := owner.call("POST", "/api/v1/portfolios/create-portfolio", map[string]interface{}{"name": "Private"})
	require.Equal(t, 201, code)
	portfolioID := field(out, "portfolio_id")
	code, out = owner.call("POST", "/api/v1/holdings/open-holding", map[string]interface{}{
		"portfolio_id": portfolioID, "fund_id": uuid.New().String(),
	})
	require.Equal(t, 201, code)
	holdingID := field(out, "holding_id")
	code, _ = owner.call("POST", "/api/v1/lots/create-lot", map[string]interface{}{
		"holding_id": holdingID, "request_date": "2024-01-10", "value": "100", "quotas": "10",
	})
	require.Equal(t, 201, code)

	other := &client{t: t, app: app, cookie: login(t, mr, constants.Viewer)}
	for _, path := range []string{
		"/api/v1/holdings/" + holdingID,
		"/api/v1/holdings/view-holdings?portfolio_id=" + portfolioID,
		"/api/v1/holdings/" + holdingID + "/events",
		"/api/v1/holdings/" + holdingID + "/reconcile",
		"/api/v1/lots/holding/" + holdingID,
		"/api/v1/withdrawals/holding/" + holdingID,
	} {
		code, _ := other.call("GET", path, nil)
		assert.Equal(t, http.StatusForbidden, code, path)
	}

	code, _ = owner.call("GET", "/api/v1/lots/holding/"+holdingID, nil)
	assert.Equal(t, http.StatusOK, code)
}
