package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateParam(t *testing.T) {
	got, err := ParseDateParam("", false)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = ParseDateParam("2025-04-02", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDateParam("2025-04-02", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 2, 23, 59, 59, 999999999, time.UTC), got)

	got, err = ParseDateParam("2025-04-02T10:30:00+05:00", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 2, 5, 30, 0, 0, time.UTC), got)

	_, err = ParseDateParam("yesterday", false)
	assert.Error(t, err)
}

func TestRollingWindows(t *testing.T) {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	cur, prev := RollingWindows(now, 30*Day)

	assert.True(t, cur.Contains(now))
	assert.True(t, cur.Contains(now.Add(-30*Day)))
	assert.False(t, cur.Contains(now.Add(-30*Day-time.Second)))

	assert.True(t, prev.Contains(now.Add(-30*Day-time.Second)))
	assert.True(t, prev.Contains(now.Add(-60*Day)))
	assert.False(t, prev.Contains(now.Add(-30*Day)))
	assert.False(t, prev.Contains(now.Add(-60*Day-time.Second)))
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 40, DaysSince(now.Add(-40*Day), now))
	assert.Equal(t, 0, DaysSince(now.Add(Day), now))
	assert.Equal(t, 40, DaysSince(now.Add(-41*Day+time.Minute), now))
}
