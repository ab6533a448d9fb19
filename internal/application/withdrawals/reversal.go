package withdrawals

import (
	"errors"

	"fundledger-backend/internal/application/allocations"
	"fundledger-backend/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reversal totals what a deleted withdrawal gave back to its lots.
type Reversal struct {
	Quotas      decimal.Decimal
	Value       decimal.Decimal
	Allocations int
}

// Reverse restores every lot the withdrawal drew from by the quotas and
// purchase-price value recorded on its allocations, then deletes the
// allocations and the withdrawal. Market prices play no part, so reversing is
// the exact inverse of allocating. The caller adjusts the holding aggregate.
func Reverse(tx *gorm.DB, w *domain.Withdrawal) (*Reversal, error) {
	allocs, err := allocations.ForWithdrawal(tx, w.WithdrawalID)
	if err != nil {
		return nil, err
	}

	r := &Reversal{Quotas: decimal.Zero, Value: decimal.Zero, Allocations: len(allocs)}
	for _, a := range allocs {
		var lot domain.Lot
		if err := tx.Where("lot_id = ?", a.LotID).First(&lot).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.Invalid("allocation %s references missing lot %s", a.AllocationID, a.LotID)
			}
			return nil, err
		}
		if lot.HoldingID != w.HoldingID {
			return nil, domain.Invalid("allocation %s crosses holdings", a.AllocationID)
		}
		quotas := lot.RemainingQuotas.Add(a.QuotasUsed)
		if quotas.GreaterThan(lot.OriginalQuotas) {
			return nil, domain.Invalid("reversing allocation %s would leave lot %s with %s of %s quotas", a.AllocationID, lot.LotID, quotas, lot.OriginalQuotas)
		}
		if err := tx.Model(&lot).Updates(map[string]interface{}{
			"remaining_quotas": quotas,
			"remaining_value":  lot.RemainingValue.Add(a.ValueUsed),
		}).Error; err != nil {
			return nil, err
		}
		r.Quotas = r.Quotas.Add(a.QuotasUsed)
		r.Value = r.Value.Add(a.ValueUsed)
	}

	if err := tx.Where("withdrawal_id = ?", w.WithdrawalID).Delete(&domain.Allocation{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Delete(&domain.Withdrawal{}, "withdrawal_id = ?", w.WithdrawalID).Error; err != nil {
		return nil, err
	}
	return r, nil
}
