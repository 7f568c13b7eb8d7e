package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// WebhookDispatchJobName is the name of the outbox dispatcher
const WebhookDispatchJobName = "webhook_dispatch"

// WebhookDispatcher sends the webhook deliveries that are due
type WebhookDispatcher interface {
	DispatchDue(ctx context.Context) (service.DispatchResult, error)
}

type WebhookDispatchJob struct {
	dispatcher WebhookDispatcher
	logger     *zap.Logger
}

func NewWebhookDispatchJob(dispatcher WebhookDispatcher, logger *zap.Logger) *WebhookDispatchJob {
	return &WebhookDispatchJob{dispatcher: dispatcher, logger: logger}
}

// Run drains one batch of the outbox. Individual delivery failures are
// rescheduled by the service and do not fail the run.
func (j *WebhookDispatchJob) Run(ctx context.Context) error {
	result, err := j.dispatcher.DispatchDue(ctx)
	if err != nil {
		return fmt.Errorf("failed to dispatch webhooks: %w", err)
	}
	if result.Delivered+result.Retrying+result.Failed > 0 {
		j.logger.Info("dispatched webhooks",
			zap.Int("delivered", result.Delivered),
			zap.Int("retrying", result.Retrying),
			zap.Int("failed", result.Failed))
	}
	return nil
}

func RegisterWebhookDispatchJob(scheduler *Scheduler, dispatcher WebhookDispatcher, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewWebhookDispatchJob(dispatcher, logger)
	return scheduler.AddJob(WebhookDispatchJobName, cronExpr, timeout, job.Run)
}
