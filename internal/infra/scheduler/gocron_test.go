package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGocron_RunsTaskRepeatedly(t *testing.T) {
	g, err := New(nil)
	require.NoError(t, err)

	var runs int64
	require.NoError(t, g.Every(context.Background(), "tick", 20*time.Millisecond, func(context.Context) error {
		atomic.AddInt64(&runs, 1)
		return errors.New("reported, not fatal")
	}))
	g.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt64(&runs) >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, g.Shutdown())
}

func TestGocron_SkipsAfterContextCancel(t *testing.T) {
	g, err := New(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var runs int64
	require.NoError(t, g.Every(ctx, "noop", 10*time.Millisecond, func(context.Context) error {
		atomic.AddInt64(&runs, 1)
		return nil
	}))
	g.Start()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, g.Shutdown())
	assert.Zero(t, atomic.LoadInt64(&runs))
}
