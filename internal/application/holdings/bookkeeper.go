package holdings

import (
	"errors"

	"fundledger-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// The Apply* functions adjust the running totals of a holding that the caller
// has locked inside the transaction that also writes the ledger rows. Persist
// the result with SaveHolding.

// ApplyPurchase adds a new lot's balances.
func ApplyPurchase(h *domain.Holding, quotas, value decimal.Decimal) {
	h.QuotaTotal = h.QuotaTotal.Add(quotas)
	h.InvestedTotal = h.InvestedTotal.Add(value)
}

// ApplyWithdrawal removes the quotas and purchase cost drawn by a withdrawal.
func ApplyWithdrawal(h *domain.Holding, quotas, value decimal.Decimal) {
	subtract(h, quotas, value, "withdrawal")
}

// ApplyReversal adds back what a deleted withdrawal had drawn.
func ApplyReversal(h *domain.Holding, quotas, value decimal.Decimal) {
	h.QuotaTotal = h.QuotaTotal.Add(quotas)
	h.InvestedTotal = h.InvestedTotal.Add(value)
}

// ApplyLotRemoval removes a deleted lot's remaining balances.
func ApplyLotRemoval(h *domain.Holding, quotas, value decimal.Decimal) {
	subtract(h, quotas, value, "lot_removal")
}

// subtract saturates at zero. A clamp means the aggregate had drifted from its
// lots, so it is logged.
func subtract(h *domain.Holding, quotas, value decimal.Decimal, reason string) {
	q, qClamped := saturatingSub(h.QuotaTotal, quotas)
	v, vClamped := saturatingSub(h.InvestedTotal, value)
	if qClamped || vClamped {
		log.Warn().
			Str("holding_id", h.HoldingID.String()).
			Str("reason", reason).
			Str("quota_total", h.QuotaTotal.String()).
			Str("invested_total", h.InvestedTotal.String()).
			Str("quotas", quotas.String()).
			Str("value", value.String()).
			Msg("Holding aggregate clamped at zero")
	}
	h.QuotaTotal = q
	h.InvestedTotal = v
}

func saturatingSub(a, b decimal.Decimal) (decimal.Decimal, bool) {
	r := a.Sub(b)
	if r.IsNegative() {
		return decimal.Zero, true
	}
	return r, false
}

// LockHolding loads a holding with a row lock held until the transaction ends.
// SQLite has no row locks; there the version check in SaveHolding applies.
func LockHolding(tx *gorm.DB, holdingID uuid.UUID) (*domain.Holding, error) {
	var h domain.Holding
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("holding_id = ?", holdingID).
		First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

// SaveHolding writes the totals back if the version is unchanged since the
// holding was read, and bumps the version.
func SaveHolding(tx *gorm.DB, h *domain.Holding) error {
	res := tx.Model(&domain.Holding{}).
		Where("holding_id = ? AND version = ?", h.HoldingID, h.Version).
		Updates(map[string]interface{}{
			"quota_total":    h.QuotaTotal,
			"invested_total": h.InvestedTotal,
			"version":        h.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrentUpdate
	}
	h.Version++
	return nil
}
