package events

import (
	"context"
	"encoding/json"
	"testing"

	"fundledger-backend/internal/domain"
	"fundledger-backend/internal/infrastructure/database/databasetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndForHolding(t *testing.T) {
	db := databasetest.New(t)
	holdingID := uuid.New()
	actor := uuid.New()

	require.NoError(t, Record(db, holdingID, domain.EventLotCreated, actor, map[string]interface{}{"quotas": "100"}))
	require.NoError(t, Record(db, holdingID, domain.EventLotDeleted, uuid.Nil, nil))
	require.NoError(t, Record(db, uuid.New(), domain.EventHoldingOpened, actor, nil))

	s := &Service{DB: db}
	got, err := s.ForHolding(context.Background(), holdingID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, domain.EventLotCreated, got[0].EventType)
	require.NotNil(t, got[0].ActorUserID)
	assert.Equal(t, actor, *got[0].ActorUserID)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(got[0].EventData, &data))
	assert.Equal(t, "100", data["quotas"])

	assert.Equal(t, domain.EventLotDeleted, got[1].EventType)
	assert.Nil(t, got[1].ActorUserID)
}
