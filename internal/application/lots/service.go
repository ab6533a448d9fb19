package lots

import (
	"context"
	"errors"
	"time"

	"fundledger-backend/internal/application/access"
	"fundledger-backend/internal/application/allocations"
	"fundledger-backend/internal/application/events"
	"fundledger-backend/internal/application/holdings"
	"fundledger-backend/internal/domain"
	"fundledger-backend/internal/pkg/dates"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service encapsulates purchase-lot operations.
type Service struct {
	DB         *gorm.DB
	Authorizer access.Authorizer
	MaxRetries int
}

// CreateLotInput describes a purchase. Value is required; at least one of
// Quotas and UnitPrice must be given and the other is derived from Value.
type CreateLotInput struct {
	HoldingID      uuid.UUID
	RequestDate    time.Time
	PricingDate    *time.Time
	SettlementDate *time.Time
	Value          decimal.Decimal
	Quotas         *decimal.Decimal
	UnitPrice      *decimal.Decimal
}

// BuildLot turns the input into an unsaved, validated lot.
func BuildLot(in CreateLotInput) (*domain.Lot, error) {
	value := in.Value.Round(domain.QuotaScale)
	if !value.IsPositive() {
		return nil, domain.Invalid("lot value must be positive")
	}

	var quotas, price decimal.Decimal
	switch {
	case in.Quotas == nil && in.UnitPrice == nil:
		return nil, domain.Invalid("quotas or unit price is required")
	case in.Quotas == nil:
		price = in.UnitPrice.Round(domain.QuotaScale)
		if !price.IsPositive() {
			return nil, domain.Invalid("lot unit price must be positive")
		}
		quotas = value.DivRound(price, domain.QuotaScale)
	case in.UnitPrice == nil:
		quotas = in.Quotas.Round(domain.QuotaScale)
		if !quotas.IsPositive() {
			return nil, domain.Invalid("lot quotas must be positive")
		}
		price = value.DivRound(quotas, domain.QuotaScale)
	default:
		quotas = in.Quotas.Round(domain.QuotaScale)
		price = in.UnitPrice.Round(domain.QuotaScale)
	}

	lot := &domain.Lot{
		HoldingID:       in.HoldingID,
		RequestDate:     dates.Day(in.RequestDate),
		PricingDate:     dates.DayPtr(in.PricingDate),
		SettlementDate:  dates.DayPtr(in.SettlementDate),
		OriginalQuotas:  quotas,
		OriginalValue:   value,
		UnitPrice:       price,
		RemainingQuotas: quotas,
		RemainingValue:  value,
	}
	if err := lot.Validate(); err != nil {
		return nil, err
	}
	return lot, nil
}

// CreateLot records a purchase and adds it to the holding aggregate.
func (s *Service) CreateLot(ctx context.Context, actor access.Actor, in CreateLotInput) (*domain.Lot, error) {
	if err := access.RequireHolding(ctx, s.DB, s.Authorizer, actor, in.HoldingID); err != nil {
		return nil, err
	}
	lot, err := BuildLot(in)
	if err != nil {
		return nil, err
	}

	var created domain.Lot
	err = holdings.RunWithRetry(ctx, s.MaxRetries, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			h, err := holdings.LockHolding(tx, in.HoldingID)
			if err != nil {
				return err
			}
			created = *lot
			created.LotID = uuid.Nil
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
			holdings.ApplyPurchase(h, created.OriginalQuotas, created.OriginalValue)
			if err := holdings.SaveHolding(tx, h); err != nil {
				return err
			}
			return events.Record(tx, h.HoldingID, domain.EventLotCreated, actor.UserID, map[string]interface{}{
				"lot_id":     created.LotID,
				"quotas":     created.OriginalQuotas,
				"value":      created.OriginalValue,
				"unit_price": created.UnitPrice,
			})
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("holding_id", created.HoldingID.String()).
		Str("lot_id", created.LotID.String()).
		Str("quotas", created.OriginalQuotas.String()).
		Msg("Lot created")
	return &created, nil
}

// DeleteLot removes a lot that no withdrawal has drawn from and subtracts its
// balances from the holding. Lots with allocations are rejected so the
// allocation trail stays intact; delete the withdrawals first.
func (s *Service) DeleteLot(ctx context.Context, actor access.Actor, lotID uuid.UUID) error {
	lot, err := s.load(ctx, lotID)
	if err != nil {
		return err
	}
	if err := access.RequireHolding(ctx, s.DB, s.Authorizer, actor, lot.HoldingID); err != nil {
		return err
	}

	return holdings.RunWithRetry(ctx, s.MaxRetries, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			h, err := holdings.LockHolding(tx, lot.HoldingID)
			if err != nil {
				return err
			}
			var current domain.Lot
			if err := tx.Where("lot_id = ?", lotID).First(&current).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrNotFound
				}
				return err
			}
			n, err := allocations.CountForLot(tx, lotID)
			if err != nil {
				return err
			}
			if n > 0 {
				return domain.Invalid("lot %s is referenced by %d allocations", lotID, n)
			}
			if err := tx.Delete(&current).Error; err != nil {
				return err
			}
			holdings.ApplyLotRemoval(h, current.RemainingQuotas, current.RemainingValue)
			if err := holdings.SaveHolding(tx, h); err != nil {
				return err
			}
			return events.Record(tx, h.HoldingID, domain.EventLotDeleted, actor.UserID, map[string]interface{}{
				"lot_id": lotID,
				"quotas": current.RemainingQuotas,
				"value":  current.RemainingValue,
			})
		})
	})
}

// ViewLot returns a lot the actor may read.
func (s *Service) ViewLot(ctx context.Context, actor access.Actor, lotID uuid.UUID) (*domain.Lot, error) {
	lot, err := s.load(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireViewHolding(ctx, s.DB, s.Authorizer, actor, lot.HoldingID); err != nil {
		return nil, err
	}
	return lot, nil
}

func (s *Service) load(ctx context.Context, lotID uuid.UUID) (*domain.Lot, error) {
	if lotID == uuid.Nil {
		return nil, domain.Invalid("lot_id is required")
	}
	var lot domain.Lot
	if err := s.DB.WithContext(ctx).Where("lot_id = ?", lotID).First(&lot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// ListLots returns the lots of a holding in FIFO order. With openOnly set it
// returns just the lots the next withdrawal would draw from; otherwise
// consumed lots are included.
func (s *Service) ListLots(ctx context.Context, actor access.Actor, holdingID uuid.UUID, openOnly bool) ([]domain.Lot, error) {
	if err := access.RequireViewHolding(ctx, s.DB, s.Authorizer, actor, holdingID); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	if openOnly {
		return OpenLots(db, holdingID)
	}
	var out []domain.Lot
	err := db.
		Where("holding_id = ?", holdingID).
		Order(fifoKey + " ASC").
		Order("lot_id ASC").
		Find(&out).Error
	return out, err
}
