package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]int
	assert.ErrorIs(t, repo.Get(ctx, "analytics:summary:2024-01-08", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "analytics:summary:2024-01-08", map[string]int{"total": 1}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "analytics:*"))
	assert.NoError(t, repo.Ping(ctx))
}

func TestCacheRepositoryUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	repo := NewCacheRepository(client, zap.NewNop())
	ctx := context.Background()

	var dest map[string]int
	err := repo.Get(ctx, "analytics:summary:2024-01-08", &dest)
	require.Error(t, err)
	assert.NotErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Error(t, repo.Ping(ctx))
}

func TestCacheKeyPrefix(t *testing.T) {
	assert.Equal(t, "study-planner:analytics:*", cacheKey("analytics:*"))
}
