package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_GetBytes(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	c := NewRedisCacheFromClient(db, "pulseforge")

	mock.ExpectGet("pulseforge:artifact:pulse").SetVal(`{"scores":[]}`)
	mock.ExpectGet("pulseforge:artifact:macro").RedisNil()
	mock.ExpectGet("pulseforge:artifact:sectors").SetErr(errors.New("connection reset"))

	got, err := c.GetBytes(ctx, "artifact:pulse")
	require.NoError(t, err)
	assert.Equal(t, `{"scores":[]}`, string(got))

	_, err = c.GetBytes(ctx, "artifact:macro")
	assert.ErrorIs(t, err, ErrCacheMiss)

	_, err = c.GetBytes(ctx, "artifact:sectors")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_SetAndDelete(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	c := NewRedisCacheFromClient(db, "pulseforge")

	body := []byte(`{"notes":[]}`)
	mock.ExpectSet("pulseforge:artifact:macro", body, time.Hour).SetVal("OK")
	mock.ExpectExists("pulseforge:artifact:macro").SetVal(1)
	mock.ExpectUnlink("pulseforge:artifact:macro", "pulseforge:artifact:pulse").SetVal(2)

	require.NoError(t, c.SetBytes(ctx, "artifact:macro", body, time.Hour))
	ok, err := c.Exists(ctx, "artifact:macro")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, c.Delete(ctx, "artifact:macro", "artifact:pulse"))
	require.NoError(t, c.Delete(ctx))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_Lock(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	c := NewRedisCacheFromClient(db, "pulseforge")

	mock.ExpectSetNX("pulseforge:lock:run", "locked", 10*time.Minute).SetVal(true)
	mock.ExpectSetNX("pulseforge:lock:run", "locked", 10*time.Minute).SetVal(false)
	mock.ExpectDel("pulseforge:lock:run").SetVal(1)

	ok, err := c.TryLock(ctx, "lock:run", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TryLock(ctx, "lock:run", 10*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Unlock(ctx, "lock:run"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLayeredCache_PromotesFromRedis(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	lc := NewLayeredCache(NewRedisCacheFromClient(db, "pulseforge"), WithLayeredMemoryTTL(time.Minute))
	t.Cleanup(func() { _ = lc.mem.Close() })

	mock.ExpectGet("pulseforge:artifact:pulse").SetVal("payload")

	for i := 0; i < 3; i++ {
		got, err := lc.GetBytes(ctx, "artifact:pulse")
		require.NoError(t, err)
		assert.Equal(t, "payload", string(got))
	}
	// only the first read reaches Redis
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLayeredCache_WriteThroughFailureSkipsMemory(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	lc := NewLayeredCache(NewRedisCacheFromClient(db, "pulseforge"))
	t.Cleanup(func() { _ = lc.mem.Close() })

	mock.ExpectSet("pulseforge:k", []byte("v"), time.Hour).SetErr(errors.New("readonly"))

	require.Error(t, lc.SetBytes(ctx, "k", []byte("v"), time.Hour))
	assert.Zero(t, lc.mem.Len())
	assert.NoError(t, mock.ExpectationsWereMet())
}
