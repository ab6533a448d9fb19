package portfolios

import (
	pfsvc "fundledger-backend/internal/application/portfolios"
	"fundledger-backend/internal/middleware"
	"fundledger-backend/internal/pkg/response"
	"fundledger-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *pfsvc.Service
}

// POST /api/v1/portfolios/create-portfolio
func (h *Handlers) CreatePortfolio(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	body, err := validation.DecodeBody(c.Body())
	if err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	p, err := h.Service.CreatePortfolio(c.UserContext(), actor, validation.Field(body, "name"))
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.SuccessCreated(c, "Portfolio created successfully", p, nil)
}

// GET /api/v1/portfolios/view-portfolios
func (h *Handlers) ViewPortfolios(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	data, err := h.Service.ListPortfolios(c.UserContext(), actor)
	if err != nil {
		return response.LedgerError(c, err)
	}
	return response.Success(c, "Portfolios fetched successfully", data, nil)
}
