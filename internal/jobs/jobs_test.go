package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/jobs"
	"github.com/aimarketspace/marketplace-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeArchiver struct {
	archived int64
	err      error
	calls    int
}

func (f *fakeArchiver) ArchiveExpired(ctx context.Context) (int64, error) {
	f.calls++
	return f.archived, f.err
}

type fakeDispatcher struct {
	result service.DispatchResult
	err    error
}

func (f *fakeDispatcher) DispatchDue(ctx context.Context) (service.DispatchResult, error) {
	return f.result, f.err
}

type fakeCleaner struct {
	links, sessions int64
	err             error
}

func (f *fakeCleaner) CleanupExpired(ctx context.Context) (int64, int64, error) {
	return f.links, f.sessions, f.err
}

type fakePruner struct{ n int }

func (f *fakePruner) Prune() int { return f.n }

func TestScheduler_AddAndRemove(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.AddJob("b", "0 */5 * * * *", time.Second, noop))
	require.NoError(t, s.AddJob("a", "@hourly", time.Second, noop))
	assert.Equal(t, []string{"a", "b"}, s.GetJobNames())

	err := s.AddJob("a", "@hourly", time.Second, noop)
	assert.Error(t, err)

	err = s.AddJob("bad", "not a cron", time.Second, noop)
	assert.Error(t, err)

	require.NoError(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetJobNames())
	assert.Error(t, s.RemoveJob("a"))
}

func TestScheduler_RunNowAppliesTimeout(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := jobs.NewScheduler(zap.New(core))

	var deadline time.Time
	s.RunNow("probe", 50*time.Millisecond, func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return errors.New("boom")
	})

	assert.False(t, deadline.IsZero())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "scheduled job failed", logs.All()[0].Message)
}

func TestPostExpiryJob(t *testing.T) {
	archiver := &fakeArchiver{archived: 3}
	job := jobs.NewPostExpiryJob(archiver, zap.NewNop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, archiver.calls)

	archiver.err = errors.New("db down")
	assert.ErrorContains(t, job.Run(context.Background()), "db down")
}

func TestWebhookDispatchJob(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dispatcher := &fakeDispatcher{result: service.DispatchResult{Delivered: 2, Retrying: 1}}
	job := jobs.NewWebhookDispatchJob(dispatcher, zap.New(core))

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, 1, logs.Len())
	assert.EqualValues(t, 2, logs.All()[0].ContextMap()["delivered"])

	dispatcher.err = errors.New("query failed")
	assert.Error(t, job.Run(context.Background()))
}

func TestAuthCleanupJob(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cleaner := &fakeCleaner{links: 4, sessions: 2}
	job := jobs.NewAuthCleanupJob(cleaner, zap.New(core), &fakePruner{n: 5}, &fakePruner{n: 1})

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.EqualValues(t, 4, fields["magic_links"])
	assert.EqualValues(t, 2, fields["sessions"])
	assert.EqualValues(t, 6, fields["limiter_entries"])

	cleaner.err = errors.New("locked")
	assert.Error(t, job.Run(context.Background()))
}

func TestRegisterJobs(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, jobs.RegisterWebhookDispatchJob(s, &fakeDispatcher{}, zap.NewNop(), "*/30 * * * * *", time.Second))
	require.NoError(t, jobs.RegisterAuthCleanupJob(s, &fakeCleaner{}, zap.NewNop(), "0 0 * * * *", time.Second))

	assert.Equal(t, []string{jobs.AuthCleanupJobName, jobs.WebhookDispatchJobName}, s.GetJobNames())
}
