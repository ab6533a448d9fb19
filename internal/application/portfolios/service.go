package portfolios

import (
	"context"
	"strings"

	"fundledger-backend/internal/application/access"
	"fundledger-backend/internal/constants"
	"fundledger-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service manages the portfolios that own holdings.
type Service struct {
	DB *gorm.DB
}

// CreatePortfolio creates a portfolio owned by the actor.
func (s *Service) CreatePortfolio(ctx context.Context, actor access.Actor, name string) (*domain.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("name is required")
	}
	if len(name) > 120 {
		return nil, domain.Invalid("name must be at most 120 characters")
	}
	if actor.UserID == uuid.Nil {
		return nil, domain.ErrNotAuthorized
	}
	if !constants.AllowedRole(constants.ManageHoldings, actor.Role) {
		return nil, domain.ErrNotAuthorized
	}
	p := domain.Portfolio{OwnerUserID: actor.UserID, Name: name}
	if err := s.DB.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPortfolios returns the actor's portfolios, or every portfolio when the
// actor's role may manage any holding.
func (s *Service) ListPortfolios(ctx context.Context, actor access.Actor) ([]domain.Portfolio, error) {
	q := s.DB.WithContext(ctx).Order(`"createdAt" ASC`)
	if !constants.AllowedRole(constants.ManageAnyHolding, actor.Role) {
		q = q.Where("owner_user_id = ?", actor.UserID)
	}
	var out []domain.Portfolio
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
