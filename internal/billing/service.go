package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	jobmetrics "github.com/parkdesk/parkdesk/internal/jobs"
	"github.com/parkdesk/parkdesk/internal/shared"
)

// Runner executes a billing cycle for a given day.
type Runner interface {
	RunMonthlyBilling(ctx context.Context, today time.Time) (Result, error)
}

// Locker grants exclusive access to a named resource across processes.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(context.Context) error, error)
}

// Service is the entry point shared by the HTTP trigger, the scheduled job and
// the CLI. It guarantees at most one cycle runs at a time.
type Service struct {
	runner   Runner
	locker   Locker
	metrics  *jobmetrics.Metrics
	logger   *slog.Logger
	location *time.Location
	clock    func() time.Time
}

// NewService wires a Service. locker and metrics may be nil.
func NewService(runner Runner, locker Locker, metrics *jobmetrics.Metrics, logger *slog.Logger, loc *time.Location) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		runner:   runner,
		locker:   locker,
		metrics:  metrics,
		logger:   logger,
		location: loc,
		clock:    time.Now,
	}
}

// Today returns midnight of the current date in the billing location.
func (s *Service) Today() time.Time {
	y, m, d := s.clock().In(s.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.location)
}

// ParseDate reads a YYYY-MM-DD date in the billing location.
func (s *Service) ParseDate(raw string) (time.Time, error) {
	day, err := time.ParseInLocation(time.DateOnly, raw, s.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidDate)
	}
	return day, nil
}

// Location returns the billing time zone.
func (s *Service) Location() *time.Location {
	return s.location
}

// Run executes one cycle for day. ErrCycleInProgress is returned without
// touching the store when another cycle holds the lock.
func (s *Service) Run(ctx context.Context, day time.Time) (Result, error) {
	logger := s.logger.With(
		slog.String("run_id", uuid.NewString()),
		slog.String("date", day.Format(time.DateOnly)),
	)
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, shared.BillingCycleLockKey)
		if err != nil {
			if errors.Is(err, shared.ErrLockHeld) {
				logger.Warn("billing cycle skipped: lock held")
				return Result{}, ErrCycleInProgress
			}
			return Result{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("release billing lock", slog.Any("error", err))
			}
		}()
	}

	tracker := s.metrics.Track(CycleName)
	result, err := s.runner.RunMonthlyBilling(ctx, day)
	if err := tracker.End(err); err != nil {
		logger.Error("billing cycle failed", slog.Any("error", err))
		return Result{}, err
	}

	s.metrics.AddPermitOutcomes("created", result.Created)
	s.metrics.AddPermitOutcomes("skipped", result.Skipped)
	s.metrics.AddPermitOutcomes("extended", result.Extended)
	s.metrics.AddPermitOutcomes("rejected", len(result.Rejected))

	logger.Info("billing cycle completed",
		slog.String("period", string(result.Period)),
		slog.Int("created", result.Created),
		slog.Int("skipped", result.Skipped),
		slog.Int("extended", result.Extended),
		slog.Int("rejected", len(result.Rejected)),
	)
	return result, nil
}

// RunToday executes the cycle for the current date in the billing location.
func (s *Service) RunToday(ctx context.Context) (Result, error) {
	return s.Run(ctx, s.Today())
}
