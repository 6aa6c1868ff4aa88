package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/parkdesk/parkdesk/internal/billing"
)

// BillingCycleRunner is the subset of billing.Service used by the job.
type BillingCycleRunner interface {
	Run(ctx context.Context, day time.Time) (billing.Result, error)
	Today() time.Time
	ParseDate(raw string) (time.Time, error)
}

// BillingCycleJob processes TaskBillingMonthly tasks.
type BillingCycleJob struct {
	Service BillingCycleRunner
	Logger  *slog.Logger
}

// NewBillingCycleJob wires the billing job handler.
func NewBillingCycleJob(service BillingCycleRunner, logger *slog.Logger) *BillingCycleJob {
	return &BillingCycleJob{Service: service, Logger: logger}
}

// Handle runs one billing cycle. A cycle already in progress and a malformed
// payload are not retried; store failures are.
func (j *BillingCycleJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("billing cycle: handler not configured")
	}
	var payload BillingCyclePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("billing cycle payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	day := j.Service.Today()
	if payload.Date != "" {
		parsed, err := j.Service.ParseDate(payload.Date)
		if err != nil {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		day = parsed
	}

	logger := j.logger().With(slog.String("task", t.Type()), slog.String("date", day.Format(time.DateOnly)))
	result, err := j.Service.Run(ctx, day)
	switch {
	case errors.Is(err, billing.ErrCycleInProgress):
		logger.Info("billing cycle already running, dropping task")
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	case err != nil:
		return err
	}
	logger.Info("billing task processed",
		slog.Int("created", result.Created),
		slog.Int("skipped", result.Skipped),
		slog.Int("extended", result.Extended))
	return nil
}

func (j *BillingCycleJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
