package cron

import (
	"context"
	"fmt"

	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

const defaultRetryBatch = 50

type pendingProcessor interface {
	ProcessPending(ctx context.Context, limit int) (int, error)
}

// WebhookRetryJobParams configure the stored-event retry job.
type WebhookRetryJobParams struct {
	Logger    *logger.Logger
	Gate      pendingProcessor
	BatchSize int
}

// NewWebhookRetryJob builds the cron job that re-runs handlers for
// webhook events whose first processing attempt failed.
func NewWebhookRetryJob(params WebhookRetryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Gate == nil {
		return nil, fmt.Errorf("webhook gate required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultRetryBatch
	}
	return &webhookRetryJob{
		logg:  params.Logger,
		gate:  params.Gate,
		batch: batch,
	}, nil
}

type webhookRetryJob struct {
	logg  *logger.Logger
	gate  pendingProcessor
	batch int
}

func (j *webhookRetryJob) Name() string { return "webhook-retry" }

func (j *webhookRetryJob) Run(ctx context.Context) error {
	processed, err := j.gate.ProcessPending(ctx, j.batch)
	logCtx := j.logg.WithField(ctx, "processed", processed)
	j.logg.Info(logCtx, "webhook retry pass complete")
	return err
}
