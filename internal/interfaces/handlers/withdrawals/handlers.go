package withdrawals

import (
	"fmt"

	allocsvc "fundledger-backend/internal/application/allocations"
	wdsvc "fundledger-backend/internal/application/withdrawals"
	"fundledger-backend/internal/domain"
	"fundledger-backend/internal/middleware"
	"fundledger-backend/internal/pkg/dates"
	"fundledger-backend/internal/pkg/response"
	"fundledger-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service           *wdsvc.Service
	AllocationService *allocsvc.Service
}

// withdrawalView adds the realized gain to a withdrawal's JSON.
type withdrawalView struct {
	*domain.Withdrawal
	RealizedGain decimal.Decimal `json:"realized_gain"`
}

func viewOf(w *domain.Withdrawal) withdrawalView {
	return withdrawalView{Withdrawal: w, RealizedGain: w.RealizedGain()}
}

// POST /api/v1/withdrawals/create-withdrawal
// Body: holding_id, request_date, target_quotas, target_value; pricing_date, settlement_date and yield optional.
func (h *Handlers) CreateWithdrawal(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	body, err := validation.DecodeBody(c.Body())
	if err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	in, err := parseCreateWithdrawal(body)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}

	w, err := h.Service.CreateWithdrawal(c.UserContext(), actor, *in)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.SuccessCreated(c, "Withdrawal created successfully", viewOf(w), nil)
}

func parseCreateWithdrawal(body map[string]interface{}) (*wdsvc.CreateWithdrawalInput, error) {
	var in wdsvc.CreateWithdrawalInput
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
	if in.TargetQuotas, ok = validation.ParseDecimal(validation.Field(body, "target_quotas")); !ok {
		return nil, fmt.Errorf("Missing or invalid field: target_quotas")
	}
	if in.TargetValue, ok = validation.ParseDecimal(validation.Field(body, "target_value")); !ok {
		return nil, fmt.Errorf("Missing or invalid field: target_value")
	}
	if in.Yield, ok = validation.ParseOptionalDecimal(validation.Field(body, "yield")); !ok {
		return nil, fmt.Errorf("Invalid field: yield")
	}
	return &in, nil
}

// DELETE /api/v1/withdrawals/:withdrawal_id
func (h *Handlers) DeleteWithdrawal(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	withdrawalID, ok := validation.ParseUUID(c.Params("withdrawal_id"))
	if !ok {
		return response.Error(c, "Invalid withdrawal_id format", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.DeleteWithdrawal(c.UserContext(), actor, withdrawalID); err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Withdrawal deleted successfully", fiber.Map{"withdrawal_id": withdrawalID}, nil)
}

// GET /api/v1/withdrawals/holding/:holding_id
func (h *Handlers) ListWithdrawals(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	holdingID, ok := validation.ParseUUID(c.Params("holding_id"))
	if !ok {
		return response.Error(c, "Invalid holding_id format", fiber.StatusBadRequest, nil)
	}
	list, err := h.Service.ListWithdrawals(c.UserContext(), actor, holdingID)
	if err != nil {
		return response.LedgerError(c, err)
	}
	data := make([]withdrawalView, 0, len(list))
	for i := range list {
		data = append(data, viewOf(&list[i]))
	}
	return response.Success(c, "Withdrawals fetched successfully", data, nil)
}

// GET /api/v1/withdrawals/:withdrawal_id
func (h *Handlers) ViewWithdrawal(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	withdrawalID, ok := validation.ParseUUID(c.Params("withdrawal_id"))
	if !ok {
		return response.Error(c, "Invalid withdrawal_id format", fiber.StatusBadRequest, nil)
	}
	w, err := h.Service.ViewWithdrawal(c.UserContext(), actor, withdrawalID)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Withdrawal fetched successfully", viewOf(w), nil)
}

// GET /api/v1/withdrawals/:withdrawal_id/allocations
func (h *Handlers) Allocations(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	withdrawalID, ok := validation.ParseUUID(c.Params("withdrawal_id"))
	if !ok {
		return response.Error(c, "Invalid withdrawal_id format", fiber.StatusBadRequest, nil)
	}
	data, err := h.AllocationService.ViewForWithdrawal(c.UserContext(), actor, withdrawalID)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Allocations fetched successfully", data, nil)
}
