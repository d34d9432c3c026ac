package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (f *fakePurger) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 3, f.err
}

func (f *fakePurger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestNewRetentionSweeper_Invalid(t *testing.T) {
	_, err := NewRetentionSweeper(&fakePurger{}, 24*time.Hour, "not a schedule")
	assert.Error(t, err)

	_, err = NewRetentionSweeper(&fakePurger{}, 0, "@daily")
	assert.Error(t, err)
}

func TestSweep_UsesRetentionWindow(t *testing.T) {
	p := &fakePurger{}
	s, err := NewRetentionSweeper(p, 90*24*time.Hour, "@daily")
	require.NoError(t, err)
	now := time.Date(2026, 10, 16, 3, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	n, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.Len(t, p.cutoffs, 1)
	assert.Equal(t, time.Date(2026, 7, 18, 3, 0, 0, 0, time.UTC), p.cutoffs[0])
}

func TestRunAndStop(t *testing.T) {
	p := &fakePurger{err: errors.New("database is locked")}
	s, err := NewRetentionSweeper(p, time.Hour, "0 3 * * *")
	require.NoError(t, err)

	finished := make(chan struct{})
	go func() {
		s.Run()
		close(finished)
	}()

	require.Eventually(t, func() bool { return p.calls() == 1 }, time.Second, 10*time.Millisecond)
	s.Stop()
	s.Stop()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
