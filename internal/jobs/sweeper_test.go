package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExpirer struct {
	cutoff time.Time
	n      int64
	err    error
}

func (r *recordingExpirer) ExpireLapsedSupporters(_ context.Context, cutoff time.Time) (int64, error) {
	r.cutoff = cutoff
	return r.n, r.err
}

func TestSweeperUsesGrace(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	exp := &recordingExpirer{n: 2}
	s := NewSubscriptionSweeper(exp, 24*time.Hour)
	s.now = func() time.Time { return now }

	n, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, now.Add(-24*time.Hour), exp.cutoff)
}

func TestSweeperWrapsErrors(t *testing.T) {
	boom := errors.New("db down")
	s := NewSubscriptionSweeper(&recordingExpirer{err: boom}, 0)

	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, DefaultGrace, s.grace)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	sched := NewScheduler()
	sweeper := NewSubscriptionSweeper(&recordingExpirer{}, 0)

	assert.Error(t, sched.AddSweeper(context.Background(), "every now and then", sweeper))
	assert.NoError(t, sched.AddSweeper(context.Background(), "", sweeper))
	assert.NoError(t, sched.AddSweeper(context.Background(), "*/5 * * * *", sweeper))
}
