package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestScheduler_Add(t *testing.T) {
	s := New(nil)

	_, err := s.Add("bad", "not a cron", func(context.Context) error { return nil })
	assert.ErrorContains(t, err, "invalid schedule")

	// Five fields are rejected: the seconds field is required.
	_, err = s.Add("five", "0 1 * * *", func(context.Context) error { return nil })
	assert.Error(t, err)

	id, err := s.Add("nightly", "0 0 1 * * *", func(context.Context) error { return nil })
	require.NoError(t, err)
	next := s.Next(id)
	assert.Equal(t, 1, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
}

func TestScheduler_RunsAndLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := New(zap.New(core))

	var runs atomic.Int32
	_, err := s.Add("tick", "* * * * * *", func(context.Context) error {
		if runs.Add(1) == 1 {
			return errors.New("first run fails")
		}
		return nil
	})
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	assert.NotZero(t, logs.FilterMessage("Scheduled job failed").Len())
	assert.NotZero(t, logs.FilterMessage("Scheduled job finished").Len())
}
