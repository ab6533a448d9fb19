package holdings

import (
	"context"
	"errors"

	"fundledger-backend/internal/application/access"
	"fundledger-backend/internal/application/allocations"
	"fundledger-backend/internal/application/events"
	"fundledger-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service encapsulates holding lifecycle operations.
type Service struct {
	DB         *gorm.DB
	Authorizer access.Authorizer
}

// OpenHolding creates an empty holding for a fund in a portfolio.
func (s *Service) OpenHolding(ctx context.Context, actor access.Actor, portfolioID, fundID uuid.UUID, targetWeight decimal.Decimal) (*domain.Holding, error) {
	if err := access.Require(ctx, s.Authorizer, actor, portfolioID); err != nil {
		return nil, err
	}
	if fundID == uuid.Nil {
		return nil, domain.Invalid("fund_id is required")
	}
	if targetWeight.IsNegative() || targetWeight.GreaterThan(decimal.NewFromInt(1)) {
		return nil, domain.Invalid("target weight must be between 0 and 1")
	}

	var h domain.Holding
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var portfolio domain.Portfolio
		if err := tx.Where("portfolio_id = ?", portfolioID).First(&portfolio).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		var existing int64
		if err := tx.Model(&domain.Holding{}).
			Where("portfolio_id = ? AND fund_id = ?", portfolioID, fundID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return domain.Invalid("portfolio already holds fund %s", fundID)
		}
		h = domain.Holding{
			PortfolioID:   portfolioID,
			FundID:        fundID,
			QuotaTotal:    decimal.Zero,
			InvestedTotal: decimal.Zero,
			TargetWeight:  targetWeight,
		}
		if err := tx.Create(&h).Error; err != nil {
			return err
		}
		return events.Record(tx, h.HoldingID, domain.EventHoldingOpened, actor.UserID, map[string]interface{}{
			"fund_id":       fundID,
			"target_weight": targetWeight,
		})
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// CloseHolding deletes a holding and everything it owns. Allocations are
// removed explicitly before the withdrawals and lots they reference.
func (s *Service) CloseHolding(ctx context.Context, actor access.Actor, holdingID uuid.UUID) error {
	h, err := s.load(ctx, holdingID)
	if err != nil {
		return err
	}
	if err := access.Require(ctx, s.Authorizer, actor, h.PortfolioID); err != nil {
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := LockHolding(tx, holdingID); err != nil {
			return err
		}
		withdrawalIDs := tx.Model(&domain.Withdrawal{}).Select("withdrawal_id").Where("holding_id = ?", holdingID)
		res := tx.Where("withdrawal_id IN (?)", withdrawalIDs).Delete(&domain.Allocation{})
		if res.Error != nil {
			return res.Error
		}
		removedAllocations := res.RowsAffected
		if err := tx.Where("holding_id = ?", holdingID).Delete(&domain.Withdrawal{}).Error; err != nil {
			return err
		}
		if err := tx.Where("holding_id = ?", holdingID).Delete(&domain.Lot{}).Error; err != nil {
			return err
		}
		if err := tx.Where("holding_id = ?", holdingID).Delete(&domain.HoldingEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("holding_id = ?", holdingID).Delete(&domain.Holding{}).Error; err != nil {
			return err
		}
		log.Info().
			Str("holding_id", holdingID.String()).
			Int64("allocations_removed", removedAllocations).
			Msg("Holding closed")
		return nil
	})
}

// ViewHolding returns a holding the actor may read.
func (s *Service) ViewHolding(ctx context.Context, actor access.Actor, holdingID uuid.UUID) (*domain.Holding, error) {
	h, err := s.load(ctx, holdingID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireView(ctx, s.Authorizer, actor, h.PortfolioID); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Service) load(ctx context.Context, holdingID uuid.UUID) (*domain.Holding, error) {
	if holdingID == uuid.Nil {
		return nil, domain.Invalid("holding_id is required")
	}
	var h domain.Holding
	if err := s.DB.WithContext(ctx).Where("holding_id = ?", holdingID).First(&h).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

// ListHoldings returns every holding of a portfolio.
func (s *Service) ListHoldings(ctx context.Context, actor access.Actor, portfolioID uuid.UUID) ([]domain.Holding, error) {
	if portfolioID == uuid.Nil {
		return nil, domain.Invalid("portfolio_id is required")
	}
	if err := access.RequireView(ctx, s.Authorizer, actor, portfolioID); err != nil {
		return nil, err
	}
	var out []domain.Holding
	err := s.DB.WithContext(ctx).Where("portfolio_id = ?", portfolioID).Order(`"createdAt" ASC`).Find(&out).Error
	return out, err
}

// LotIssue describes a lot whose remaining balance does not reconcile with
// its allocations.
type LotIssue struct {
	LotID           uuid.UUID       `json:"lot_id"`
	OriginalQuotas  decimal.Decimal `json:"original_quotas"`
	RemainingQuotas decimal.Decimal `json:"remaining_quotas"`
	AllocatedQuotas decimal.Decimal `json:"allocated_quotas"`
}

// Reconciliation compares a holding's aggregate with its lots.
type Reconciliation struct {
	HoldingID     uuid.UUID       `json:"holding_id"`
	QuotaTotal    decimal.Decimal `json:"quota_total"`
	InvestedTotal decimal.Decimal `json:"invested_total"`
	LotQuotaSum   decimal.Decimal `json:"lot_quota_sum"`
	LotValueSum   decimal.Decimal `json:"lot_value_sum"`
	Balanced      bool            `json:"balanced"`
	LotIssues     []LotIssue      `json:"lot_issues"`
}

// Reconcile checks that the aggregate equals the sum of remaining lot
// balances and that every lot satisfies original = remaining + allocated.
func (s *Service) Reconcile(ctx context.Context, actor access.Actor, holdingID uuid.UUID) (*Reconciliation, error) {
	h, err := s.ViewHolding(ctx, actor, holdingID)
	if err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)

	var lots []domain.Lot
	if err := db.Where("holding_id = ?", holdingID).Find(&lots).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(lots))
	for _, l := range lots {
		ids = append(ids, l.LotID)
	}
	allocs, err := allocations.ForLots(db, ids)
	if err != nil {
		return nil, err
	}
	allocated := make(map[uuid.UUID]decimal.Decimal, len(lots))
	for _, a := range allocs {
		allocated[a.LotID] = allocated[a.LotID].Add(a.QuotasUsed)
	}

	r := &Reconciliation{
		HoldingID:     holdingID,
		QuotaTotal:    h.QuotaTotal,
		InvestedTotal: h.InvestedTotal,
		LotQuotaSum:   decimal.Zero,
		LotValueSum:   decimal.Zero,
		LotIssues:     []LotIssue{},
	}
	for _, l := range lots {
		r.LotQuotaSum = r.LotQuotaSum.Add(l.RemainingQuotas)
		r.LotValueSum = r.LotValueSum.Add(l.RemainingValue)
		used := allocated[l.LotID]
		if !l.RemainingQuotas.Add(used).Equal(l.OriginalQuotas) {
			r.LotIssues = append(r.LotIssues, LotIssue{
				LotID:           l.LotID,
				OriginalQuotas:  l.OriginalQuotas,
				RemainingQuotas: l.RemainingQuotas,
				AllocatedQuotas: used,
			})
		}
	}
	r.Balanced = len(r.LotIssues) == 0 &&
		r.QuotaTotal.Equal(r.LotQuotaSum) &&
		r.InvestedTotal.Sub(r.LotValueSum).Abs().LessThanOrEqual(domain.ValueTolerance)
	return r, nil
}
