package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-planner-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "planner", Password: "p@ss word", Name: "study_planner"})

	assert.Equal(t, "postgres://planner:p%40ss%20word@db:5433/study_planner?sslmode=disable&timezone=UTC", dsn)
}

type flakyPinger struct {
	failures int
	calls    int
}

func (f *flakyPinger) PingContext(context.Context) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitForPingRetries(t *testing.T) {
	p := &flakyPinger{failures: 2}

	require.NoError(t, waitForPing(context.Background(), p, 5, time.Millisecond))
	assert.Equal(t, 3, p.calls)
}

func TestWaitForPingGivesUp(t *testing.T) {
	p := &flakyPinger{failures: 10}

	err := waitForPing(context.Background(), p, 3, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, p.calls)
}

func TestWaitForPingHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &flakyPinger{failures: 10}

	err := waitForPing(ctx, p, 5, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
