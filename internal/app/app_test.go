package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/activity-hub/config"
	"github.com/learnhub/activity-hub/internal/application/query"
	"github.com/learnhub/activity-hub/pkg/logger"
)

func memoryConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Name: "activity-hub", Environment: config.EnvDevelopment},
		Database:  config.DatabaseConfig{Driver: config.StorageMemory, SeedDemo: true},
		Redis:     config.RedisConfig{Disabled: true},
		Analytics: config.AnalyticsConfig{FanoutLimit: 4, IdentityCacheTTL: time.Minute},
	}
}

func TestOpenStorage_MemoryWithDemoData(t *testing.T) {
	ctx := context.Background()
	storage, err := OpenStorage(ctx, memoryConfig(), logger.Nop())
	require.NoError(t, err)
	defer storage.Close()

	assert.Nil(t, storage.Conn)
	assert.NoError(t, storage.Ping(ctx))

	alice, err := storage.Repos.Users.FindByID(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
}

func TestNewQueries_ServeDemoData(t *testing.T) {
	ctx := context.Background()
	storage, err := OpenStorage(ctx, memoryConfig(), logger.Nop())
	require.NoError(t, err)

	q := NewQueries(storage.Repos, nil, 4, logger.Nop())

	list, err := q.MyActivities.Handle(ctx, query.GetMyActivitiesQuery{UserID: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, list.Activities)

	overview, err := q.Overview.Handle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, overview.TotalUsers)
}

func TestOpenCache_Disabled(t *testing.T) {
	cache, err := OpenCache(memoryConfig(), logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, cache)
	assert.Nil(t, NewIdentityCache(cache, time.Minute, logger.Nop()))
}

func TestConfigMapping(t *testing.T) {
	pc := PostgresConfig(config.DatabaseConfig{
		URL:             "postgres://u:p@db:5432/hub",
		MaxOpenConns:    30,
		MaxIdleConns:    3,
		ConnMaxLifetime: time.Hour,
	})
	assert.Equal(t, "postgres://u:p@db:5432/hub", pc.DSN())
	assert.EqualValues(t, 30, pc.MaxConns)
	assert.EqualValues(t, 3, pc.MinConns)

	rc := RedisConfig(config.RedisConfig{Host: "cache", Port: 6380, DB: 2})
	assert.Equal(t, "cache:6380", rc.Addr())
	assert.Equal(t, 2, rc.DB)
	assert.Equal(t, 3, rc.MaxRetries)
}
