package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Allocation records that QuotasUsed quotas of a withdrawal were drawn from a
// lot. ValueUsed is QuotasUsed at the lot's purchase unit price.
type Allocation struct {
	AllocationID uuid.UUID       `gorm:"column:allocation_id;type:uuid;primaryKey" json:"allocation_id"`
	WithdrawalID uuid.UUID       `gorm:"column:withdrawal_id;type:uuid;not null;uniqueIndex:idx_allocation_withdrawal_lot" json:"withdrawal_id"`
	LotID        uuid.UUID       `gorm:"column:lot_id;type:uuid;not null;uniqueIndex:idx_allocation_withdrawal_lot;index" json:"lot_id"`
	QuotasUsed   decimal.Decimal `gorm:"column:quotas_used;type:decimal(24,8);not null" json:"quotas_used"`
	ValueUsed    decimal.Decimal `gorm:"column:value_used;type:decimal(24,8);not null" json:"value_used"`
	CreatedAt    time.Time       `gorm:"column:createdAt" json:"createdAt"`
}

func (Allocation) TableName() string {
	return "Allocations"
}

// BeforeCreate uses UUIDv7 so allocations list in the order they were drawn.
func (a *Allocation) BeforeCreate(tx *gorm.DB) error {
	if a.AllocationID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		a.AllocationID = id
	}
	return nil
}
