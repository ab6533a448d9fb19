package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Portfolio groups the holdings of one investor. Authorization decisions are
// scoped to it.
type Portfolio struct {
	PortfolioID uuid.UUID `gorm:"column:portfolio_id;type:uuid;primaryKey" json:"portfolio_id"`
	OwnerUserID uuid.UUID `gorm:"column:owner_user_id;type:uuid;not null;index" json:"owner_user_id"`
	Name        string    `gorm:"column:name;type:varchar(120);not null" json:"name"`
	CreatedAt   time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Portfolio) TableName() string {
	return "Portfolios"
}

func (p *Portfolio) BeforeCreate(tx *gorm.DB) error {
	if p.PortfolioID == uuid.Nil {
		p.PortfolioID = uuid.New()
	}
	return nil
}
