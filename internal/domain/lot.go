package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Lot is one completed purchase into a holding. Original* fields never change;
// Remaining* are drawn down by withdrawals and restored by their reversal.
type Lot struct {
	LotID           uuid.UUID       `gorm:"column:lot_id;type:uuid;primaryKey" json:"lot_id"`
	HoldingID       uuid.UUID       `gorm:"column:holding_id;type:uuid;not null;index" json:"holding_id"`
	RequestDate     time.Time       `gorm:"column:request_date;not null" json:"request_date"`
	PricingDate     *time.Time      `gorm:"column:pricing_date;index" json:"pricing_date"`
	SettlementDate  *time.Time      `gorm:"column:settlement_date" json:"settlement_date"`
	OriginalQuotas  decimal.Decimal `gorm:"column:original_quotas;type:decimal(24,8);not null" json:"original_quotas"`
	OriginalValue   decimal.Decimal `gorm:"column:original_value;type:decimal(24,8);not null" json:"original_value"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:decimal(24,8);not null" json:"unit_price"`
	RemainingQuotas decimal.Decimal `gorm:"column:remaining_quotas;type:decimal(24,8);not null" json:"remaining_quotas"`
	RemainingValue  decimal.Decimal `gorm:"column:remaining_value;type:decimal(24,8);not null" json:"remaining_value"`
	CreatedAt       time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Lot) TableName() string {
	return "Lots"
}

// BeforeCreate assigns a UUIDv7 so that identifier order follows creation
// order; FIFO uses it to break pricing-date ties.
func (l *Lot) BeforeCreate(tx *gorm.DB) error {
	if l.LotID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		l.LotID = id
	}
	return nil
}

// FIFODate is the date lots are ordered by: the pricing date, or the request
// date while the price is not fixed yet.
func (l *Lot) FIFODate() time.Time {
	if l.PricingDate != nil {
		return *l.PricingDate
	}
	return l.RequestDate
}

// Validate checks the invariants a lot must satisfy when it is created.
func (l *Lot) Validate() error {
	if err := ValidateDateOrder(l.RequestDate, l.PricingDate, l.SettlementDate); err != nil {
		return err
	}
	if !l.OriginalQuotas.IsPositive() {
		return Invalid("lot quotas must be positive")
	}
	if !l.OriginalValue.IsPositive() {
		return Invalid("lot value must be positive")
	}
	if !l.UnitPrice.IsPositive() {
		return Invalid("lot unit price must be positive")
	}
	return ValidateQuotaValue(l.OriginalQuotas, l.UnitPrice, l.OriginalValue)
}
