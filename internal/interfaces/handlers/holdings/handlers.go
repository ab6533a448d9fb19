package holdings

import (
	evsvc "fundledger-backend/internal/application/events"
	holdsvc "fundledger-backend/internal/application/holdings"
	"fundledger-backend/internal/middleware"
	"fundledger-backend/internal/pkg/response"
	"fundledger-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service      *holdsvc.Service
	EventService *evsvc.Service
}

// POST /api/v1/holdings/open-holding
func (h *Handlers) OpenHolding(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	body, err := validation.DecodeBody(c.Body())
	if err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	portfolioID, ok := validation.ParseUUID(validation.Field(body, "portfolio_id"))
	if !ok {
		return response.Error(c, "Missing or invalid field: portfolio_id", fiber.StatusBadRequest, nil)
	}
	fundID, ok := validation.ParseUUID(validation.Field(body, "fund_id"))
	if !ok {
		return response.Error(c, "Missing or invalid field: fund_id", fiber.StatusBadRequest, nil)
	}
	weight := decimal.Zero
	if raw := validation.Field(body, "target_weight"); raw != "" {
		if weight, ok = validation.ParseDecimal(raw); !ok {
			return response.Error(c, "Invalid field: target_weight", fiber.StatusBadRequest, nil)
		}
	}

	holding, err := h.Service.OpenHolding(c.UserContext(), actor, portfolioID, fundID, weight)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.SuccessCreated(c, "Holding opened successfully", holding, nil)
}

// GET /api/v1/holdings/view-holdings?portfolio_id=
func (h *Handlers) ViewHoldings(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	portfolioID, ok := validation.ParseUUID(c.Query("portfolio_id"))
	if !ok {
		return response.Error(c, "portfolio_id is required", fiber.StatusBadRequest, nil)
	}
	data, err := h.Service.ListHoldings(c.UserContext(), actor, portfolioID)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Holdings fetched successfully", data, nil)
}

// GET /api/v1/holdings/:holding_id
func (h *Handlers) ViewHolding(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	holdingID, ok := validation.ParseUUID(c.Params("holding_id"))
	if !ok {
		return response.Error(c, "Invalid holding_id format", fiber.StatusBadRequest, nil)
	}
	holding, err := h.Service.ViewHolding(c.UserContext(), actor, holdingID)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Holding fetched successfully", holding, nil)
}

// DELETE /api/v1/holdings/:holding_id
func (h *Handlers) CloseHolding(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	holdingID, ok := validation.ParseUUID(c.Params("holding_id"))
	if !ok {
		return response.Error(c, "Invalid holding_id format", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.CloseHolding(c.UserContext(), actor, holdingID); err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Holding closed successfully", fiber.Map{"holding_id": holdingID}, nil)
}

// GET /api/v1/holdings/:holding_id/reconcile
func (h *Handlers) Reconcile(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	holdingID, ok := validation.ParseUUID(c.Params("holding_id"))
	if !ok {
		return response.Error(c, "Invalid holding_id format", fiber.StatusBadRequest, nil)
	}
	rec, err := h.Service.Reconcile(c.UserContext(), actor, holdingID)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Holding reconciled", rec, nil)
}

// GET /api/v1/holdings/:holding_id/events
func (h *Handlers) Events(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	holdingID, ok := validation.ParseUUID(c.Params("holding_id"))
	if !ok {
		return response.Error(c, "Invalid holding_id format", fiber.StatusBadRequest, nil)
	}
	if _, err := h.Service.ViewHolding(c.UserContext(), actor, holdingID); err != nil {
		return response.LedgerError(c, err)
	}
	data, err := h.EventService.ForHolding(c.UserContext(), holdingID)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Holding events fetched successfully", data, nil)
}
