package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Holding is the running aggregate for one fund inside one portfolio.
// QuotaTotal and InvestedTotal always equal the remaining balances summed over
// the holding's lots.
type Holding struct {
	HoldingID     uuid.UUID       `gorm:"column:holding_id;type:uuid;primaryKey" json:"holding_id"`
	PortfolioID   uuid.UUID       `gorm:"column:portfolio_id;type:uuid;not null;uniqueIndex:idx_holding_portfolio_fund" json:"portfolio_id"`
	FundID        uuid.UUID       `gorm:"column:fund_id;type:uuid;not null;uniqueIndex:idx_holding_portfolio_fund" json:"fund_id"`
	QuotaTotal    decimal.Decimal `gorm:"column:quota_total;type:decimal(24,8);not null;default:0" json:"quota_total"`
	InvestedTotal decimal.Decimal `gorm:"column:invested_total;type:decimal(24,8);not null;default:0" json:"invested_total"`
	TargetWeight  decimal.Decimal `gorm:"column:target_weight;type:decimal(9,6);not null;default:0" json:"target_weight"`
	Version       int64           `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt     time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Holding) TableName() string {
	return "Holdings"
}

func (h *Holding) BeforeCreate(tx *gorm.DB) error {
	if h.HoldingID == uuid.Nil {
		h.HoldingID = uuid.New()
	}
	return nil
}
