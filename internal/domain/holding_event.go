package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventLotCreated         = "LOT_CREATED"
	EventLotDeleted         = "LOT_DELETED"
	EventWithdrawalCreated  = "WITHDRAWAL_CREATED"
	EventWithdrawalReversed = "WITHDRAWAL_REVERSED"
	EventHoldingOpened      = "HOLDING_OPENED"
)

// HoldingEvent is an append-only audit record of ledger mutations.
type HoldingEvent struct {
	EventID     uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	HoldingID   uuid.UUID      `gorm:"column:holding_id;type:uuid;not null;index" json:"holding_id"`
	EventType   string         `gorm:"column:event_type;type:varchar(32);not null" json:"event_type"`
	ActorUserID *uuid.UUID     `gorm:"column:actor_user_id;type:uuid" json:"actor_user_id"`
	EventData   datatypes.JSON `gorm:"column:event_data" json:"event_data"`
	CreatedAt   time.Time      `gorm:"column:createdAt" json:"createdAt"`
}

func (HoldingEvent) TableName() string {
	return "HoldingEvents"
}

func (e *HoldingEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
