package access

import (
	"context"
	"errors"

	"fundledger-backend/internal/constants"
	"fundledger-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor is the caller on whose behalf a ledger operation runs.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// Authorizer answers "may this actor read, or manage, the holdings of this
// portfolio".
type Authorizer interface {
	CanViewPortfolio(ctx context.Context, actor Actor, portfolioID uuid.UUID) (bool, error)
	CanManagePortfolio(ctx context.Context, actor Actor, portfolioID uuid.UUID) (bool, error)
}

// PortfolioOwnerAuthorizer allows the portfolio owner when their role carries
// the needed permission, and any actor whose role carries ManageAnyHolding.
type PortfolioOwnerAuthorizer struct {
	DB *gorm.DB
}

func (a *PortfolioOwnerAuthorizer) CanViewPortfolio(ctx context.Context, actor Actor, portfolioID uuid.UUID) (bool, error) {
	return a.ownerWith(ctx, constants.ViewData, actor, portfolioID)
}

func (a *PortfolioOwnerAuthorizer) CanManagePortfolio(ctx context.Context, actor Actor, portfolioID uuid.UUID) (bool, error) {
	return a.ownerWith(ctx, constants.ManageHoldings, actor, portfolioID)
}

func (a *PortfolioOwnerAuthorizer) ownerWith(ctx context.Context, permission string, actor Actor, portfolioID uuid.UUID) (bool, error) {
	if constants.AllowedRole(constants.ManageAnyHolding, actor.Role) {
		return true, nil
	}
	if !constants.AllowedRole(permission, actor.Role) {
		return false, nil
	}
	var portfolio domain.Portfolio
	if err := a.DB.WithContext(ctx).Where("portfolio_id = ?", portfolioID).First(&portfolio).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return portfolio.OwnerUserID == actor.UserID, nil
}

// Require turns a negative manage decision into domain.ErrNotAuthorized.
func Require(ctx context.Context, az Authorizer, actor Actor, portfolioID uuid.UUID) error {
	return decide(az.CanManagePortfolio(ctx, actor, portfolioID))
}

// RequireView turns a negative read decision into domain.ErrNotAuthorized.
func RequireView(ctx context.Context, az Authorizer, actor Actor, portfolioID uuid.UUID) error {
	return decide(az.CanViewPortfolio(ctx, actor, portfolioID))
}

func decide(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotAuthorized
	}
	return nil
}

// HoldingPortfolio resolves the portfolio a holding belongs to.
func HoldingPortfolio(ctx context.Context, db *gorm.DB, holdingID uuid.UUID) (uuid.UUID, error) {
	var h domain.Holding
	if err := db.WithContext(ctx).Select("holding_id", "portfolio_id").Where("holding_id = ?", holdingID).First(&h).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, domain.ErrNotFound
		}
		return uuid.Nil, err
	}
	return h.PortfolioID, nil
}

// RequireHolding checks that actor may manage the holding's portfolio.
func RequireHolding(ctx context.Context, db *gorm.DB, az Authorizer, actor Actor, holdingID uuid.UUID) error {
	portfolioID, err := HoldingPortfolio(ctx, db, holdingID)
	if err != nil {
		return err
	}
	return Require(ctx, az, actor, portfolioID)
}

// RequireViewHolding checks that actor may read the holding's portfolio.
func RequireViewHolding(ctx context.Context, db *gorm.DB, az Authorizer, actor Actor, holdingID uuid.UUID) error {
	portfolioID, err := HoldingPortfolio(ctx, db, holdingID)
	if err != nil {
		return err
	}
	return RequireView(ctx, az, actor, portfolioID)
}

// Static is a fixed decision, for wiring layers that authorize upstream.
type Static bool

func (s Static) CanViewPortfolio(context.Context, Actor, uuid.UUID) (bool, error) {
	return bool(s), nil
}

func (s Static) CanManagePortfolio(context.Context, Actor, uuid.UUID) (bool, error) {
	return bool(s), nil
}
