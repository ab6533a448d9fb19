package lots

import (
	"fmt"

	lotsvc "fundledger-backend/internal/application/lots"
	"fundledger-backend/internal/middleware"
	"fundledger-backend/internal/pkg/dates"
	"fundledger-backend/internal/pkg/response"
	"fundledger-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *lotsvc.Service
}

// POST /api/v1/lots/create-lot
// Body: holding_id, request_date, value, and quotas and/or unit_price; pricing_date and settlement_date optional.
func (h *Handlers) CreateLot(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	body, err := validation.DecodeBody(c.Body())
	if err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	in, err := parseCreateLot(body)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}

	lot, err := h.Service.CreateLot(c.UserContext(), actor, *in)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.SuccessCreated(c, "Lot created successfully", lot, nil)
}

func parseCreateLot(body map[string]interface{}) (*lotsvc.CreateLotInput, error) {
	var in lotsvc.CreateLotInput
	var ok bool
	if in.HoldingID, ok = validation.ParseUUID(validation.Field(body, "holding_id")); !ok {
		return nil, fmt.Errorf("Missing or invalid field: holding_id")
	}
	var err error
	if in.RequestDate, err = dates.Parse(validation.Field(body, "request_date")); err != nil {
		return nil, fmt.Errorf("Missing or invalid field: request_date")
	}
	if in.PricingDate, err = dates.ParseOptional(validation.Field(body, "pricing_date")); err != nil {
		return nil, fmt.Errorf("Invalid field: pricing_date")
	}
	if in.SettlementDate, err = dates.ParseOptional(validation.Field(body, "settlement_date")); err != nil {
		return nil, fmt.Errorf("Invalid field: settlement_date")
	}
	if in.Value, ok = validation.ParseDecimal(validation.Field(body, "value")); !ok {
		return nil, fmt.Errorf("Missing or invalid field: value")
	}
	if in.Quotas, ok = validation.ParseOptionalDecimal(validation.Field(body, "quotas")); !ok {
		return nil, fmt.Errorf("Invalid field: quotas")
	}
	if in.UnitPrice, ok = validation.ParseOptionalDecimal(validation.Field(body, "unit_price")); !ok {
		return nil, fmt.Errorf("Invalid field: unit_price")
	}
	return &in, nil
}

// DELETE /api/v1/lots/:lot_id
func (h *Handlers) DeleteLot(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	lotID, ok := validation.ParseUUID(c.Params("lot_id"))
	if !ok {
		return response.Error(c, "Invalid lot_id format", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.DeleteLot(c.UserContext(), actor, lotID); err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Lot deleted successfully", fiber.Map{"lot_id": lotID}, nil)
}

// GET /api/v1/lots/holding/:holding_id?open=true
func (h *Handlers) ListLots(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	holdingID, ok := validation.ParseUUID(c.Params("holding_id"))
	if !ok {
		return response.Error(c, "Invalid holding_id format", fiber.StatusBadRequest, nil)
	}
	data, err := h.Service.ListLots(c.UserContext(), actor, holdingID, c.QueryBool("open"))
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Lots fetched successfully", data, nil)
}
