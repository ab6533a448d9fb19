package allocations

import (
	"context"
	"errors"

	"fundledger-backend/internal/application/access"
	"fundledger-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Insert is the only write path for allocations. It checks that the lot and
// withdrawal share a holding, that the pair has no allocation yet, and that
// the lot's already-allocated quotas plus quotas stay within its original
// quota count. value is the purchase cost released; lot balances are left to
// the caller.
func Insert(tx *gorm.DB, w *domain.Withdrawal, lot *domain.Lot, quotas, value decimal.Decimal) (*domain.Allocation, error) {
	if !quotas.IsPositive() {
		return nil, domain.Invalid("allocated quotas must be positive")
	}
	if value.IsNegative() {
		return nil, domain.Invalid("allocated value must not be negative")
	}
	if lot.HoldingID != w.HoldingID {
		return nil, domain.Invalid("lot %s and withdrawal %s belong to different holdings", lot.LotID, w.WithdrawalID)
	}

	var existing int64
	if err := tx.Model(&domain.Allocation{}).
		Where("withdrawal_id = ? AND lot_id = ?", w.WithdrawalID, lot.LotID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, domain.Invalid("withdrawal %s already has an allocation on lot %s", w.WithdrawalID, lot.LotID)
	}

	used, err := AllocatedQuotas(tx, lot.LotID)
	if err != nil {
		return nil, err
	}
	if used.Add(quotas).GreaterThan(lot.OriginalQuotas) {
		return nil, domain.Invalid("allocating %s quotas exceeds lot %s: %s of %s already allocated", quotas, lot.LotID, used, lot.OriginalQuotas)
	}

	a := &domain.Allocation{
		WithdrawalID: w.WithdrawalID,
		LotID:        lot.LotID,
		QuotasUsed:   quotas,
		ValueUsed:    value,
	}
	if err := tx.Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// AllocatedQuotas sums the quotas drawn from a lot across all withdrawals.
func AllocatedQuotas(tx *gorm.DB, lotID uuid.UUID) (decimal.Decimal, error) {
	var rows []domain.Allocation
	if err := tx.Where("lot_id = ?", lotID).Find(&rows).Error; err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.QuotasUsed)
	}
	return sum, nil
}

// ForWithdrawal returns a withdrawal's allocations in creation order.
func ForWithdrawal(tx *gorm.DB, withdrawalID uuid.UUID) ([]domain.Allocation, error) {
	var out []domain.Allocation
	err := tx.Where("withdrawal_id = ?", withdrawalID).Order(`"createdAt" ASC, allocation_id ASC`).Find(&out).Error
	return out, err
}

// ForLots returns every allocation drawn from any of the given lots.
func ForLots(tx *gorm.DB, lotIDs []uuid.UUID) ([]domain.Allocation, error) {
	var out []domain.Allocation
	if len(lotIDs) == 0 {
		return out, nil
	}
	err := tx.Where("lot_id IN ?", lotIDs).Find(&out).Error
	return out, err
}

// CountForLot reports how many allocations reference a lot.
func CountForLot(tx *gorm.DB, lotID uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&domain.Allocation{}).Where("lot_id = ?", lotID).Count(&n).Error
	return n, err
}

// Service exposes read access to the allocation ledger.
type Service struct {
	DB         *gorm.DB
	Authorizer access.Authorizer
}

// ViewForWithdrawal lists the allocations a withdrawal produced.
func (s *Service) ViewForWithdrawal(ctx context.Context, actor access.Actor, withdrawalID uuid.UUID) ([]domain.Allocation, error) {
	var w domain.Withdrawal
	if err := s.DB.WithContext(ctx).Where("withdrawal_id = ?", withdrawalID).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := access.RequireViewHolding(ctx, s.DB, s.Authorizer, actor, w.HoldingID); err != nil {
		return nil, err
	}
	return ForWithdrawal(s.DB.WithContext(ctx), withdrawalID)
}
