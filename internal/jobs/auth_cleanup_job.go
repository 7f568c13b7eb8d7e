package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// AuthCleanupJobName is the name of the expired credential cleanup job
const AuthCleanupJobName = "auth_cleanup"

// CredentialCleaner deletes magic links and sessions that can no longer be used
type CredentialCleaner interface {
	CleanupExpired(ctx context.Context) (int64, int64, error)
}

// Pruner drops idle entries from an in-process rate limiter
type Pruner interface {
	Prune() int
}

type AuthCleanupJob struct {
	cleaner  CredentialCleaner
	limiters []Pruner
	logger   *zap.Logger
}

// NewAuthCleanupJob creates the job. limiters are pruned on every run and
// may be empty when rate limiting state lives in Redis.
func NewAuthCleanupJob(cleaner CredentialCleaner, logger *zap.Logger, limiters ...Pruner) *AuthCleanupJob {
	return &AuthCleanupJob{cleaner: cleaner, limiters: limiters, logger: logger}
}

func (j *AuthCleanupJob) Run(ctx context.Context) error {
	links, sessions, err := j.cleaner.CleanupExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to clean up expired credentials: %w", err)
	}

	pruned := 0
	for _, l := range j.limiters {
		pruned += l.Prune()
	}

	j.logger.Info("cleaned up expired credentials",
		zap.Int64("magic_links", links),
		zap.Int64("sessions", sessions),
		zap.Int("limiter_entries", pruned))
	return nil
}

func RegisterAuthCleanupJob(scheduler *Scheduler, cleaner CredentialCleaner, logger *zap.Logger, cronExpr string, timeout time.Duration, limiters ...Pruner) error {
	job := NewAuthCleanupJob(cleaner, logger, limiters...)
	return scheduler.AddJob(AuthCleanupJobName, cronExpr, timeout, job.Run)
}
