package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Withdrawal is a redemption request against a holding. It is immutable once
// created; deleting it reverses every allocation it made.
type Withdrawal struct {
	WithdrawalID   uuid.UUID        `gorm:"column:withdrawal_id;type:uuid;primaryKey" json:"withdrawal_id"`
	HoldingID      uuid.UUID        `gorm:"column:holding_id;type:uuid;not null;index" json:"holding_id"`
	RequestDate    time.Time        `gorm:"column:request_date;not null" json:"request_date"`
	PricingDate    *time.Time       `gorm:"column:pricing_date" json:"pricing_date"`
	SettlementDate *time.Time       `gorm:"column:settlement_date" json:"settlement_date"`
	TargetQuotas   decimal.Decimal  `gorm:"column:target_quotas;type:decimal(24,8);not null" json:"target_quotas"`
	TargetValue    decimal.Decimal  `gorm:"column:target_value;type:decimal(24,8);not null" json:"target_value"`
	Yield          *decimal.Decimal `gorm:"column:yield;type:decimal(24,8)" json:"yield"`
	// AllocatedValue is the purchase cost of the quotas drawn from lots.
	AllocatedValue decimal.Decimal `gorm:"column:allocated_value;type:decimal(24,8);not null;default:0" json:"allocated_value"`
	CreatedAt      time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"column:updatedAt" json:"updatedAt"`

	Allocations []Allocation `gorm:"foreignKey:WithdrawalID;references:WithdrawalID" json:"allocations,omitempty"`
}

func (Withdrawal) TableName() string {
	return "Withdrawals"
}

func (w *Withdrawal) BeforeCreate(tx *gorm.DB) error {
	if w.WithdrawalID == uuid.Nil {
		w.WithdrawalID = uuid.New()
	}
	return nil
}

// BeforeUpdate rejects every update: withdrawals are create/delete only.
func (w *Withdrawal) BeforeUpdate(tx *gorm.DB) error {
	return Invalid("withdrawals cannot be modified")
}

// Validate checks the request-level invariants. Quota sufficiency is checked
// against the locked holding by the withdrawal service.
func (w *Withdrawal) Validate() error {
	if err := ValidateDateOrder(w.RequestDate, w.PricingDate, w.SettlementDate); err != nil {
		return err
	}
	if !w.TargetQuotas.IsPositive() {
		return Invalid("withdrawal quotas must be positive")
	}
	if w.TargetValue.IsNegative() {
		return Invalid("withdrawal value must not be negative")
	}
	return nil
}

// RealizedGain is the net value received minus the purchase cost released.
func (w *Withdrawal) RealizedGain() decimal.Decimal {
	return w.TargetValue.Sub(w.AllocatedValue)
}
