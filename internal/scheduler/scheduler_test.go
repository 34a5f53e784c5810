package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mfrank/pkg/logger"
)

type testJob struct {
	name     string
	schedule string
	fails    int32 // fail this many times before succeeding
	calls    atomic.Int32
	retries  *int
	block    chan struct{}
}

func (j *testJob) Name() string     { return j.name }
func (j *testJob) Schedule() string { return j.schedule }

func (j *testJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if n <= j.fails {
		return errors.New("upstream unavailable")
	}
	return nil
}

type retryJob struct {
	*testJob
}

func (j retryJob) MaxRetries() int { return *j.retries }

func newTestScheduler(opts ...Option) *Scheduler {
	fixed := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)
	opts = append([]Option{WithClock(func() time.Time { return fixed }), WithRetry(3, time.Millisecond)}, opts...)
	return New(logger.NewNop(), opts...)
}

// waitForResults polls job history until n results are recorded
func waitForResults(t *testing.T, s *Scheduler, name string, n int) *JobHistory {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h, err := s.GetJobHistory(name)
		require.NoError(t, err)
		if len(h.Results) >= n {
			return h
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s: timed out waiting for %d results", name, n)
	return nil
}

func TestScheduler_AddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&testJob{name: "a", schedule: "@every 1h"}))
	require.NoError(t, s.AddJob(&testJob{name: "b", schedule: "0 0 2 * * *"}))

	err := s.AddJob(&testJob{name: "a", schedule: "@every 1h"})
	assert.Error(t, err, "duplicate job name")

	err = s.AddJob(&testJob{name: "c", schedule: "not a cron"})
	assert.Error(t, err, "invalid schedule")

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestScheduler_RemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&testJob{name: "a", schedule: "@every 1h"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Empty(t, s.cron.Entries())

	assert.Error(t, s.RemoveJob("a"))
	assert.Error(t, s.RunJob("a"))

	// re-adding after removal is allowed
	require.NoError(t, s.AddJob(&testJob{name: "a", schedule: "@every 1h"}))
}

func TestScheduler_RunJobRecordsHistory(t *testing.T) {
	s := newTestScheduler()
	job := &testJob{name: "ok", schedule: "@every 1h"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("ok"))
	h := waitForResults(t, s, "ok", 1)

	res := h.Results[0]
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC), res.StartTime)
	assert.Empty(t, res.Error)
	s.Stop()
}

func TestScheduler_RetriesThenSucceeds(t *testing.T) {
	s := newTestScheduler()
	job := &testJob{name: "flaky", schedule: "@every 1h", fails: 2}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("flaky"))
	h := waitForResults(t, s, "flaky", 1)

	assert.True(t, h.Results[0].Success)
	assert.Equal(t, 3, h.Results[0].Attempts)
	assert.Equal(t, int32(3), job.calls.Load())
	s.Stop()
}

func TestScheduler_RetryPolicyOverride(t *testing.T) {
	zero := 0
	s := newTestScheduler()
	job := retryJob{&testJob{name: "once", schedule: "@every 1h", fails: 5, retries: &zero}}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("once"))
	h := waitForResults(t, s, "once", 1)

	assert.False(t, h.Results[0].Success)
	assert.Equal(t, 1, h.Results[0].Attempts)
	assert.Equal(t, "upstream unavailable", h.Results[0].Error)
	assert.Equal(t, int32(1), job.calls.Load())
	s.Stop()
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	s := newTestScheduler()
	job := &testJob{name: "slow", schedule: "@every 1h", block: make(chan struct{})}
	require.NoError(t, s.AddJob(job))
	s.Start()

	require.NoError(t, s.RunJob("slow"))
	for job.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	h, err := s.GetJobHistory("slow")
	require.NoError(t, err)
	require.Len(t, h.Results, 1)
	assert.False(t, h.Results[0].Success)
	assert.Equal(t, int32(1), job.calls.Load(), "no retry after stop")
}

func TestScheduler_GetJobStats(t *testing.T) {
	zero := 0
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&testJob{name: "ok", schedule: "@every 1h"}))
	require.NoError(t, s.AddJob(retryJob{&testJob{name: "bad", schedule: "@daily", fails: 10, retries: &zero}}))

	require.NoError(t, s.RunJob("ok"))
	require.NoError(t, s.RunJob("bad"))
	waitForResults(t, s, "ok", 1)
	waitForResults(t, s, "bad", 1)

	stats := s.GetJobStats()
	require.Len(t, stats, 2)

	assert.Equal(t, 1, stats["ok"].SuccessCount)
	assert.Equal(t, 1.0, stats["ok"].SuccessRate)
	assert.NotNil(t, stats["ok"].LastSuccess)
	assert.Nil(t, stats["ok"].LastFailure)

	assert.Equal(t, "@daily", stats["bad"].Schedule)
	assert.Equal(t, 1, stats["bad"].FailureCount)
	assert.NotNil(t, stats["bad"].LastFailure)
	s.Stop()
}

func TestScheduler_NextRun(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&testJob{name: "a", schedule: "@every 1h"}))

	_, err := s.NextRun("missing")
	assert.Error(t, err)

	s.Start()
	defer s.Stop()
	next, err := s.NextRun("a")
	require.NoError(t, err)
	assert.False(t, next.IsZero())
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < 120; i++ {
		h.AddResult(JobResult{JobName: "x", Attempts: i, Success: i%4 != 0})
	}

	assert.Len(t, h.Results, 100, "history capped at 100")
	assert.Equal(t, 20, h.Results[0].Attempts)

	latest := h.GetLatestResults(2)
	require.Len(t, latest, 2)
	assert.Equal(t, 118, latest[0].Attempts)
	assert.Equal(t, 119, latest[1].Attempts)

	assert.Len(t, h.GetFailedResults(), 25)
	assert.InDelta(t, 0.75, h.GetSuccessRate(), 1e-9)
}
