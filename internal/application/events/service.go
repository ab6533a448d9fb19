package events

import (
	"context"
	"encoding/json"

	"fundledger-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Record appends an audit event inside the caller's transaction.
func Record(tx *gorm.DB, holdingID uuid.UUID, eventType string, actorUserID uuid.UUID, data map[string]interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	ev := domain.HoldingEvent{
		HoldingID: holdingID,
		EventType: eventType,
		EventData: datatypes.JSON(payload),
	}
	if actorUserID != uuid.Nil {
		ev.ActorUserID = &actorUserID
	}
	return tx.Create(&ev).Error
}

// Service reads the audit trail.
type Service struct {
	DB *gorm.DB
}

// ForHolding returns a holding's events, oldest first.
func (s *Service) ForHolding(ctx context.Context, holdingID uuid.UUID) ([]domain.HoldingEvent, error) {
	var out []domain.HoldingEvent
	err := s.DB.WithContext(ctx).
		Where("holding_id = ?", holdingID).
		Order(`"createdAt" ASC`).
		Find(&out).Error
	return out, err
}
