package access

import (
	"context"
	"errors"
	"testing"

	"fundledger-backend/internal/constants"
	"fundledger-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAccessTest(t *testing.T) (*PortfolioOwnerAuthorizer, domain.Portfolio) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Portfolio{}))
	p := domain.Portfolio{OwnerUserID: uuid.New(), Name: "retirement"}
	require.NoError(t, db.Create(&p).Error)
	return &PortfolioOwnerAuthorizer{DB: db}, p
}

func TestCanManagePortfolio(t *testing.T) {
	az, p := setupAccessTest(t)
	ctx := context.Background()

	ok, err := az.CanManagePortfolio(ctx, Actor{UserID: p.OwnerUserID, Role: constants.Manager}, p.PortfolioID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = az.CanManagePortfolio(ctx, Actor{UserID: p.OwnerUserID, Role: constants.Viewer}, p.PortfolioID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = az.CanManagePortfolio(ctx, Actor{UserID: uuid.New(), Role: constants.Admin}, p.PortfolioID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = az.CanManagePortfolio(ctx, Actor{UserID: uuid.New(), Role: constants.Superadmin}, p.PortfolioID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = az.CanManagePortfolio(ctx, Actor{UserID: p.OwnerUserID, Role: constants.Manager}, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequire(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, Require(ctx, Static(true), Actor{}, uuid.New()))
	assert.True(t, errors.Is(Require(ctx, Static(false), Actor{}, uuid.New()), domain.ErrNotAuthorized))
}

func TestCanViewPortfolio(t *testing.T) {
	az, p := setupAccessTest(t)
	ctx := context.Background()

	ok, err := az.CanViewPortfolio(ctx, Actor{UserID: p.OwnerUserID, Role: constants.Viewer}, p.PortfolioID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = az.CanViewPortfolio(ctx, Actor{UserID: uuid.New(), Role: constants.Viewer}, p.PortfolioID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = az.CanViewPortfolio(ctx, Actor{UserID: uuid.New(), Role: constants.Admin}, p.PortfolioID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = az.CanViewPortfolio(ctx, Actor{UserID: uuid.New(), Role: constants.Superadmin}, p.PortfolioID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = az.CanViewPortfolio(ctx, Actor{UserID: p.OwnerUserID, Role: "guest"}, p.PortfolioID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequireViewHolding(t *testing.T) {
	az, p := setupAccessTest(t)
	require.NoError(t, az.DB.AutoMigrate(&domain.Holding{}))
	h := domain.Holding{PortfolioID: p.PortfolioID, FundID: uuid.New()}
	require.NoError(t, az.DB.Create(&h).Error)
	ctx := context.Background()

	assert.NoError(t, RequireViewHolding(ctx, az.DB, az, Actor{UserID: p.OwnerUserID, Role: constants.Viewer}, h.HoldingID))
	err := RequireViewHolding(ctx, az.DB, az, Actor{UserID: uuid.New(), Role: constants.Viewer}, h.HoldingID)
	assert.True(t, errors.Is(err, domain.ErrNotAuthorized))
	err = RequireViewHolding(ctx, az.DB, az, Actor{UserID: p.OwnerUserID, Role: constants.Viewer}, uuid.New())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	err = RequireHolding(ctx, az.DB, az, Actor{UserID: p.OwnerUserID, Role: constants.Viewer}, h.HoldingID)
	assert.True(t, errors.Is(err, domain.ErrNotAuthorized))
}
