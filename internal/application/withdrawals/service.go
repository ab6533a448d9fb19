package withdrawals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fundledger-backend/internal/application/access"
	"fundledger-backend/internal/application/events"
	"fundledger-backend/internal/application/holdings"
	"fundledger-backend/internal/application/lots"
	"fundledger-backend/internal/domain"
	"fundledger-backend/internal/pkg/dates"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service encapsulates withdrawal creation and reversal.
type Service struct {
	DB         *gorm.DB
	Authorizer access.Authorizer
	MaxRetries int
	// PageSize bounds how many open lots are read per query while allocating.
	PageSize int
}

// CreateWithdrawalInput describes a redemption request.
type CreateWithdrawalInput struct {
	HoldingID      uuid.UUID
	RequestDate    time.Time
	PricingDate    *time.Time
	SettlementDate *time.Time
	TargetQuotas   decimal.Decimal
	TargetValue    decimal.Decimal
	Yield          *decimal.Decimal
}

// CreateWithdrawal persists a withdrawal and settles it against the holding's
// lots oldest first, all in one transaction with the holding locked.
func (s *Service) CreateWithdrawal(ctx context.Context, actor access.Actor, in CreateWithdrawalInput) (*domain.Withdrawal, error) {
	if err := access.RequireHolding(ctx, s.DB, s.Authorizer, actor, in.HoldingID); err != nil {
		return nil, err
	}
	req := domain.Withdrawal{
		HoldingID:      in.HoldingID,
		RequestDate:    dates.Day(in.RequestDate),
		PricingDate:    dates.DayPtr(in.PricingDate),
		SettlementDate: dates.DayPtr(in.SettlementDate),
		TargetQuotas:   in.TargetQuotas.Round(domain.QuotaScale),
		TargetValue:    in.TargetValue.Round(domain.QuotaScale),
		Yield:          in.Yield,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created domain.Withdrawal
	err := holdings.RunWithRetry(ctx, s.MaxRetries, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			h, err := holdings.LockHolding(tx, in.HoldingID)
			if err != nil {
				return err
			}
			if req.TargetQuotas.GreaterThan(h.QuotaTotal) {
				return fmt.Errorf("%w: requested %s, holding has %s", domain.ErrInsufficientQuotas, req.TargetQuotas, h.QuotaTotal)
			}

			plan, err := PlanFIFO(lots.NewOpenLotCursor(tx, h.HoldingID, s.PageSize), req.TargetQuotas)
			if err != nil {
				return err
			}

			created = req
			created.AllocatedValue = plan.Value
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
			allocs, err := plan.Apply(tx, &created)
			if err != nil {
				return err
			}
			created.Allocations = allocs

			holdings.ApplyWithdrawal(h, plan.Quotas, plan.Value)
			if err := holdings.SaveHolding(tx, h); err != nil {
				return err
			}
			return events.Record(tx, h.HoldingID, domain.EventWithdrawalCreated, actor.UserID, map[string]interface{}{
				"withdrawal_id":   created.WithdrawalID,
				"quotas":          plan.Quotas,
				"allocated_value": plan.Value,
				"lots":            len(allocs),
			})
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("holding_id", created.HoldingID.String()).
		Str("withdrawal_id", created.WithdrawalID.String()).
		Str("quotas", created.TargetQuotas.String()).
		Int("allocations", len(created.Allocations)).
		Msg("Withdrawal allocated")
	return &created, nil
}

// DeleteWithdrawal reverses a withdrawal's allocations and removes it. Either
// every lot and the aggregate are restored or nothing changes.
func (s *Service) DeleteWithdrawal(ctx context.Context, actor access.Actor, withdrawalID uuid.UUID) error {
	w, err := s.load(ctx, withdrawalID)
	if err != nil {
		return err
	}
	if err := access.RequireHolding(ctx, s.DB, s.Authorizer, actor, w.HoldingID); err != nil {
		return err
	}

	var rev *Reversal
	err = holdings.RunWithRetry(ctx, s.MaxRetries, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			h, err := holdings.LockHolding(tx, w.HoldingID)
			if err != nil {
				return err
			}
			var current domain.Withdrawal
			if err := tx.Where("withdrawal_id = ?", withdrawalID).First(&current).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrNotFound
				}
				return err
			}
			rev, err = Reverse(tx, &current)
			if err != nil {
				return err
			}
			holdings.ApplyReversal(h, rev.Quotas, rev.Value)
			if err := holdings.SaveHolding(tx, h); err != nil {
				return err
			}
			return events.Record(tx, h.HoldingID, domain.EventWithdrawalReversed, actor.UserID, map[string]interface{}{
				"withdrawal_id": withdrawalID,
				"quotas":        rev.Quotas,
				"value":         rev.Value,
				"allocations":   rev.Allocations,
			})
		})
	})
	if err != nil {
		return err
	}
	log.Info().
		Str("holding_id", w.HoldingID.String()).
		Str("withdrawal_id", withdrawalID.String()).
		Str("quotas", rev.Quotas.String()).
		Msg("Withdrawal reversed")
	return nil
}

// ViewWithdrawal returns a withdrawal with its allocations.
func (s *Service) ViewWithdrawal(ctx context.Context, actor access.Actor, withdrawalID uuid.UUID) (*domain.Withdrawal, error) {
	w, err := s.load(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireViewHolding(ctx, s.DB, s.Authorizer, actor, w.HoldingID); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) load(ctx context.Context, withdrawalID uuid.UUID) (*domain.Withdrawal, error) {
	if withdrawalID == uuid.Nil {
		return nil, domain.Invalid("withdrawal_id is required")
	}
	var w domain.Withdrawal
	err := s.DB.WithContext(ctx).
		Preload("Allocations").
		Where("withdrawal_id = ?", withdrawalID).
		First(&w).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// ListWithdrawals returns a holding's withdrawals, oldest request first.
func (s *Service) ListWithdrawals(ctx context.Context, actor access.Actor, holdingID uuid.UUID) ([]domain.Withdrawal, error) {
	if err := access.RequireViewHolding(ctx, s.DB, s.Authorizer, actor, holdingID); err != nil {
		return nil, err
	}
	var out []domain.Withdrawal
	err := s.DB.WithContext(ctx).
		Where("holding_id = ?", holdingID).
		Order("request_date ASC").
		Order(`"createdAt" ASC`).
		Find(&out).Error
	return out, err
}
