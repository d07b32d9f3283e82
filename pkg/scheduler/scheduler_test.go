package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	applogger "PulseForge/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestScheduler_RejectsBadSpecAndZone(t *testing.T) {
	_, err := New(applogger.Nop(), WithTimezone("Mars/Olympus"))
	assert.Error(t, err)

	s, err := New(applogger.Nop())
	require.NoError(t, err)
	assert.Error(t, s.AddJob("not a cron", &countingJob{}))
}

func TestScheduler_RunNowAppliesTimeout(t *testing.T) {
	s, err := New(applogger.Nop(), WithJobTimeout(time.Millisecond))
	require.NoError(t, err)

	blocking := jobFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, s.RunNow(context.Background(), blocking), context.DeadlineExceeded)

	j := &countingJob{err: errors.New("boom")}
	assert.EqualError(t, s.RunNow(context.Background(), j), "boom")
	assert.Equal(t, int32(1), j.runs.Load())
}

func TestScheduler_FiresScheduledJob(t *testing.T) {
	s, err := New(applogger.Nop(), WithTimezone("UTC"))
	require.NoError(t, err)
	j := &countingJob{}
	require.NoError(t, s.AddJob("@every 1s", j))

	s.Start()
	assert.False(t, s.Next().IsZero())
	assert.Equal(t, "UTC", s.Location().String())
	require.Eventually(t, func() bool { return j.runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

type jobFunc func(ctx context.Context) error

func (f jobFunc) Name() string { return "func" }

func (f jobFunc) Run(ctx context.Context) error { return f(ctx) }
