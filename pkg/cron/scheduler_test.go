package cron

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
	done  chan struct{}
}

func (c *countingRefresher) Refresh(ctx context.Context) error {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("refresh ran without a deadline")
	}
	if c.done != nil {
		c.done <- struct{}{}
	}
	return c.err
}

func newTestScheduler(r RateRefresher, spec string) *Scheduler {
	return NewScheduler(r, spec, slog.New(slog.DiscardHandler))
}

func TestStart_RegistersRateRefresh(t *testing.T) {
	s := newTestScheduler(&countingRefresher{}, "@hourly")
	require.NoError(t, s.Start())
	defer s.Stop()

	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Next.After(time.Now()))
}

func TestStart_InvalidSpec(t *testing.T) {
	s := newTestScheduler(&countingRefresher{}, "every now and then")
	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every now and then")
}

func TestRunNow(t *testing.T) {
	r := &countingRefresher{done: make(chan struct{}, 1)}
	s := newTestScheduler(r, "@hourly")

	s.RunNow()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not run")
	}
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestRefreshRates_FailureIsLogged(t *testing.T) {
	r := &countingRefresher{err: errors.New("upstream down")}
	s := newTestScheduler(r, "@hourly")

	assert.NotPanics(t, s.refreshRates)
	assert.Equal(t, int32(1), r.calls.Load())
}
