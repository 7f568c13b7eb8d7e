package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// PostExpiryJobName is the name of the post archiving job
const PostExpiryJobName = "post_expiry"

// PostArchiver archives active posts whose expiry has passed
type PostArchiver interface {
	ArchiveExpired(ctx context.Context) (int64, error)
}

// PostExpiryJob moves expired posts out of the public listing
type PostExpiryJob struct {
	posts  PostArchiver
	logger *zap.Logger
}

func NewPostExpiryJob(posts PostArchiver, logger *zap.Logger) *PostExpiryJob {
	return &PostExpiryJob{posts: posts, logger: logger}
}

// Run archives every expired post in one pass
func (j *PostExpiryJob) Run(ctx context.Context) error {
	archived, err := j.posts.ArchiveExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to archive expired posts: %w", err)
	}
	if archived > 0 {
		j.logger.Info("archived expired posts", zap.Int64("count", archived))
	}
	return nil
}

// RegisterPostExpiryJob schedules the job and runs it once in the background
// so posts that expired while the API was down leave the listing right away.
func RegisterPostExpiryJob(scheduler *Scheduler, posts PostArchiver, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewPostExpiryJob(posts, logger)
	if err := scheduler.AddJob(PostExpiryJobName, cronExpr, timeout, job.Run); err != nil {
		return err
	}
	go scheduler.RunNow(PostExpiryJobName, timeout, job.Run)
	return nil
}
