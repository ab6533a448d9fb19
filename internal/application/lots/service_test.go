package lots

import (
	"context"
	"errors"
	"testing"
	"time"

	"fundledger-backend/internal/application/access"
	"fundledger-backend/internal/application/allocations"
	"fundledger-backend/internal/domain"
	"fundledger-backend/internal/infrastructure/database/databasetest"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal { v := d(s); return &v }

func day(y int, m time.Month, dd int) time.Time { return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC) }

func setupLotsTest(t *testing.T) (*Service, *gorm.DB, domain.Holding) {
	db := databasetest.New(t)
	h := domain.Holding{PortfolioID: uuid.New(), FundID: uuid.New()}
	require.NoError(t, db.Create(&h).Error)
	return &Service{DB: db, Authorizer: access.Static(true)}, db, h
}

func TestBuildLot_DerivesMissingField(t *testing.T) {
	lot, err := BuildLot(CreateLotInput{RequestDate: day(2024, 1, 1), Value: d("1000"), UnitPrice: dp("10")})
	require.NoError(t, err)
	assert.True(t, lot.OriginalQuotas.Equal(d("100")))
	assert.True(t, lot.RemainingQuotas.Equal(d("100")))

	lot, err = BuildLot(CreateLotInput{RequestDate: day(2024, 1, 1), Value: d("1000"), Quotas: dp("3")})
	require.NoError(t, err)
	assert.Equal(t, "333.33333333", lot.UnitPrice.String())

	lot, err = BuildLot(CreateLotInput{RequestDate: day(2024, 1, 1), Value: d("100"), UnitPrice: dp("3")})
	require.NoError(t, err)
	assert.Equal(t, "33.33333333", lot.OriginalQuotas.String())
}

func TestBuildLot_Rejects(t *testing.T) {
	cases := map[string]CreateLotInput{
		"no quotas or price": {RequestDate: day(2024, 1, 1), Value: d("100")},
		"zero value":         {RequestDate: day(2024, 1, 1), Value: d("0"), UnitPrice: dp("1")},
		"zero price":         {RequestDate: day(2024, 1, 1), Value: d("100"), UnitPrice: dp("0")},
		"value mismatch":     {RequestDate: day(2024, 1, 1), Value: d("100.02"), Quotas: dp("10"), UnitPrice: dp("10")},
		"dates out of order": {RequestDate: day(2024, 1, 5), PricingDate: ptr(day(2024, 1, 4)), Value: d("100"), UnitPrice: dp("10")},
		"missing request":    {Value: d("100"), UnitPrice: dp("10")},
	}
	for name, in := range cases {
		_, err := BuildLot(in)
		assert.True(t, errors.Is(err, domain.ErrValidationFailed), name)
	}
}

func ptr(t time.Time) *time.Time { return &t }

func TestCreateLot_UpdatesAggregate(t *testing.T) {
	s, db, h := setupLotsTest(t)
	ctx := context.Background()

	lot, err := s.CreateLot(ctx, access.Actor{}, CreateLotInput{
		HoldingID: h.HoldingID, RequestDate: day(2024, 1, 1), Value: d("1000.00"), Quotas: dp("100"), UnitPrice: dp("10.00"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, lot.LotID)

	var got domain.Holding
	require.NoError(t, db.Where("holding_id = ?", h.HoldingID).First(&got).Error)
	assert.True(t, got.QuotaTotal.Equal(d("100")))
	assert.True(t, got.InvestedTotal.Equal(d("1000")))
	assert.Equal(t, int64(1), got.Version)

	var events []domain.HoldingEvent
	require.NoError(t, db.Where("holding_id = ?", h.HoldingID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventLotCreated, events[0].EventType)
}

func TestCreateLot_UnknownHoldingAndDenied(t *testing.T) {
	s, _, h := setupLotsTest(t)
	ctx := context.Background()

	_, err := s.CreateLot(ctx, access.Actor{}, CreateLotInput{
		HoldingID: uuid.New(), RequestDate: day(2024, 1, 1), Value: d("10"), UnitPrice: dp("1"),
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	s.Authorizer = access.Static(false)
	_, err = s.CreateLot(ctx, access.Actor{}, CreateLotInput{
		HoldingID: h.HoldingID, RequestDate: day(2024, 1, 1), Value: d("10"), UnitPrice: dp("1"),
	})
	assert.True(t, errors.Is(err, domain.ErrNotAuthorized))
}

func TestCreateLot_AuthorizesBeforeValidating(t *testing.T) {
	s, _, h := setupLotsTest(t)
	s.Authorizer = access.Static(false)

	_, err := s.CreateLot(context.Background(), access.Actor{}, CreateLotInput{HoldingID: h.HoldingID, Value: d("0")})
	assert.True(t, errors.Is(err, domain.ErrNotAuthorized))
}

func TestLotReads_Denied(t *testing.T) {
	s, _, h := setupLotsTest(t)
	ctx := context.Background()
	lot, err := s.CreateLot(ctx, access.Actor{}, CreateLotInput{HoldingID: h.HoldingID, RequestDate: day(2024, 1, 1), Value: d("10"), UnitPrice: dp("1")})
	require.NoError(t, err)

	s.Authorizer = access.Static(false)
	_, err = s.ListLots(ctx, access.Actor{}, h.HoldingID, false)
	assert.True(t, errors.Is(err, domain.ErrNotAuthorized))
	_, err = s.ViewLot(ctx, access.Actor{}, lot.LotID)
	assert.True(t, errors.Is(err, domain.ErrNotAuthorized))
	_, err = s.ListLots(ctx, access.Actor{}, uuid.New(), false)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDeleteLot(t *testing.T) {
	s, db, h := setupLotsTest(t)
	ctx := context.Background()

	keep, err := s.CreateLot(ctx, access.Actor{}, CreateLotInput{HoldingID: h.HoldingID, RequestDate: day(2024, 1, 1), Value: d("500"), UnitPrice: dp("5")})
	require.NoError(t, err)
	drop, err := s.CreateLot(ctx, access.Actor{}, CreateLotInput{HoldingID: h.HoldingID, RequestDate: day(2024, 2, 1), Value: d("300"), UnitPrice: dp("6")})
	require.NoError(t, err)

	require.NoError(t, s.DeleteLot(ctx, access.Actor{}, drop.LotID))

	var got domain.Holding
	require.NoError(t, db.Where("holding_id = ?", h.HoldingID).First(&got).Error)
	assert.True(t, got.QuotaTotal.Equal(d("100")))
	assert.True(t, got.InvestedTotal.Equal(d("500")))

	err = s.DeleteLot(ctx, access.Actor{}, drop.LotID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// A lot with allocations cannot be deleted.
	w := domain.Withdrawal{HoldingID: h.HoldingID, RequestDate: day(2024, 3, 1), TargetQuotas: d("10"), TargetValue: d("50")}
	require.NoError(t, db.Create(&w).Error)
	_, err = allocations.Insert(db, &w, keep, d("10"), d("50"))
	require.NoError(t, err)

	err = s.DeleteLot(ctx, access.Actor{}, keep.LotID)
	assert.True(t, errors.Is(err, domain.ErrValidationFailed))
	_, err = s.ViewLot(ctx, access.Actor{}, keep.LotID)
	assert.NoError(t, err)
}

func TestOpenLots_OrderAndFilter(t *testing.T) {
	s, db, h := setupLotsTest(t)
	ctx := context.Background()
	mk := func(req time.Time, pricing *time.Time) *domain.Lot {
		lot, err := s.CreateLot(ctx, access.Actor{}, CreateLotInput{HoldingID: h.HoldingID, RequestDate: req, PricingDate: pricing, Value: d("10"), UnitPrice: dp("1")})
		require.NoError(t, err)
		return lot
	}
	late := mk(day(2024, 1, 1), ptr(day(2024, 4, 1)))
	noPrice := mk(day(2024, 2, 1), nil)
	early := mk(day(2024, 1, 1), ptr(day(2024, 1, 2)))
	spent := mk(day(2023, 1, 1), nil)
	require.NoError(t, db.Model(&domain.Lot{}).Where("lot_id = ?", spent.LotID).
		Updates(map[string]interface{}{"remaining_quotas": d("0"), "remaining_value": d("0")}).Error)

	open, err := s.ListLots(ctx, access.Actor{}, h.HoldingID, true)
	require.NoError(t, err)
	require.Len(t, open, 3)
	assert.Equal(t, []uuid.UUID{early.LotID, noPrice.LotID, late.LotID}, []uuid.UUID{open[0].LotID, open[1].LotID, open[2].LotID})

	cur := NewOpenLotCursor(db, h.HoldingID, 1)
	var walked []uuid.UUID
	for {
		lot, err := cur.Next()
		require.NoError(t, err)
		if lot == nil {
			break
		}
		walked = append(walked, lot.LotID)
	}
	assert.Equal(t, []uuid.UUID{early.LotID, noPrice.LotID, late.LotID}, walked)

	all, err := s.ListLots(ctx, access.Actor{}, h.HoldingID, false)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, spent.LotID, all[0].LotID)
}
