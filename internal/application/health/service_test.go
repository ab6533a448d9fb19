package health

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping() error { return p.err }

func TestCollectHealth_WithNilRedis(t *testing.T) {
	result := CollectHealth(context.Background(), nil, nil)
	assert.Equal(t, "issue", result.Status)
	assert.Equal(t, "disconnected", result.Dependencies["database"].Status)
	assert.Equal(t, "disconnected", result.Dependencies["redis"].Status)
	assert.Equal(t, 0, result.Traffic.TotalRequests)
}

func TestCollectHealth_WithMiniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	result := CollectHealth(ctx, rdb, pinger{})
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "connected", result.Dependencies["redis"].Status)
	assert.Equal(t, "100", result.Traffic.SuccessRate)

	require.NoError(t, rdb.Set(ctx, KeyReqTotal, "10", 0).Err())
	require.NoError(t, rdb.Set(ctx, KeyReqErrors, "2", 0).Err())
	require.NoError(t, rdb.Set(ctx, KeyResTime, "150.5", 0).Err())
	require.NoError(t, rdb.Set(ctx, KeyResCount, "10", 0).Err())

	result = CollectHealth(ctx, rdb, pinger{err: errors.New("down")})
	assert.Equal(t, "issue", result.Status)
	assert.Equal(t, "error", result.Dependencies["database"].Status)
	assert.Equal(t, 10, result.Traffic.TotalRequests)
	assert.Equal(t, 8, result.Traffic.SuccessCount)
	assert.Equal(t, "80.0", result.Traffic.SuccessRate)
	assert.Equal(t, "15.05", result.Traffic.AvgResponseTime)
}

func TestResetAndRecentErrors(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	require.NoError(t, rdb.LPush(ctx, KeyErrorLog, `{"message":"boom"}`, "not json").Err())
	entries, err := RecentErrors(ctx, rdb)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0]["message"])

	require.NoError(t, rdb.Set(ctx, KeyReqTotal, "3", 0).Err())
	require.NoError(t, Reset(ctx, rdb))
	assert.False(t, mr.Exists(KeyReqTotal))
	assert.False(t, mr.Exists(KeyErrorLog))
	assert.True(t, mr.Exists(KeyStartTime))
}
