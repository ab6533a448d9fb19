package withdrawals

import (
	"fmt"

	"fundledger-backend/internal/application/allocations"
	"fundledger-backend/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LotSource yields open lots oldest first and nil when exhausted.
type LotSource interface {
	Next() (*domain.Lot, error)
}

// Draw is the part of one lot a withdrawal consumes.
type Draw struct {
	Lot    domain.Lot
	Quotas decimal.Decimal
	Value  decimal.Decimal
}

// Plan is the full FIFO allocation of a withdrawal, computed before any write.
type Plan struct {
	Draws  []Draw
	Quotas decimal.Decimal
	Value  decimal.Decimal
}

// PlanFIFO walks lots oldest first taking min(remaining, required) from each
// until required is met. Running out of lots is ErrInsufficientQuotas and
// nothing has been written at that point.
func PlanFIFO(src LotSource, required decimal.Decimal) (*Plan, error) {
	if !required.IsPositive() {
		return nil, domain.Invalid("withdrawal quotas must be positive")
	}
	plan := &Plan{Quotas: decimal.Zero, Value: decimal.Zero}
	left := required
	for left.IsPositive() {
		lot, err := src.Next()
		if err != nil {
			return nil, err
		}
		if lot == nil {
			return nil, fmt.Errorf("%w: lots hold %s of %s quotas requested", domain.ErrInsufficientQuotas, plan.Quotas, required)
		}
		if !lot.RemainingQuotas.IsPositive() {
			continue
		}
		take := decimal.Min(lot.RemainingQuotas, left)
		value := drawValue(lot, take)
		plan.Draws = append(plan.Draws, Draw{Lot: *lot, Quotas: take, Value: value})
		plan.Quotas = plan.Quotas.Add(take)
		plan.Value = plan.Value.Add(value)
		left = left.Sub(take)
	}
	return plan, nil
}

// drawValue prices take quotas at the lot's purchase unit price. Emptying a
// lot takes whatever value it has left, so rounding and the value tolerance
// never leave residue on a lot with no quotas.
func drawValue(lot *domain.Lot, take decimal.Decimal) decimal.Decimal {
	if take.Equal(lot.RemainingQuotas) {
		return lot.RemainingValue
	}
	v := take.Mul(lot.UnitPrice).Round(domain.QuotaScale)
	if v.GreaterThan(lot.RemainingValue) {
		return lot.RemainingValue
	}
	return v
}

// Apply writes the plan for a persisted withdrawal: one allocation per draw
// and the matching decrement on each lot.
func (p *Plan) Apply(tx *gorm.DB, w *domain.Withdrawal) ([]domain.Allocation, error) {
	out := make([]domain.Allocation, 0, len(p.Draws))
	for i := range p.Draws {
		d := &p.Draws[i]
		a, err := allocations.Insert(tx, w, &d.Lot, d.Quotas, d.Value)
		if err != nil {
			return nil, err
		}
		res := tx.Model(&domain.Lot{}).
			Where("lot_id = ? AND remaining_quotas >= ?", d.Lot.LotID, d.Quotas).
			Updates(map[string]interface{}{
				"remaining_quotas": d.Lot.RemainingQuotas.Sub(d.Quotas),
				"remaining_value":  d.Lot.RemainingValue.Sub(d.Value),
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, domain.ErrConcurrentUpdate
		}
		out = append(out, *a)
	}
	return out, nil
}
