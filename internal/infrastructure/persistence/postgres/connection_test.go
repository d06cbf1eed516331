package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "db"
	cfg.User = "hub"
	cfg.Password = "secret"
	cfg.Database = "activity_hub"

	assert.Equal(t,
		"host=db port=5432 dbname=activity_hub user=hub password=secret sslmode=require connect_timeout=10",
		cfg.DSN())

	cfg.URL = "postgres://u:p@h:1/d"
	assert.Equal(t, "postgres://u:p@h:1/d", cfg.DSN())
}

func TestConfig_PoolConfigKeepsDefaultsForZeroLimits(t *testing.T) {
	cfg := Config{URL: "postgres://u:p@localhost:5432/d?sslmode=disable", MaxConns: 7, MaxConnIdleTime: time.Minute}

	pc, err := cfg.PoolConfig()
	require.NoError(t, err)
	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, int32(0), pc.MinConns)
}

func TestMigrations_Ordered(t *testing.T) {
	migs := Migrations()
	require.NotEmpty(t, migs)
	for i, m := range migs {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.UpSQL)
		assert.NotEmpty(t, m.DownSQL)
	}
}

func TestIsNoRows(t *testing.T) {
	assert.False(t, IsNoRows(nil))
	assert.False(t, IsNoRows(ErrConnectionClosed))
}
