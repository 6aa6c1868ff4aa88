package permits

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type Service struct {
	repo     Repository
	logger   *slog.Logger
	location *time.Location
	clock    func() time.Time
}

// NewService constructs a Service. Initial payments are dated in loc so they
// share the billing cycle's notion of the current period.
func NewService(repo Repository, logger *slog.Logger, loc *time.Location) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, logger: logger, location: loc, clock: time.Now}
}

func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.repo.List(ctx)
}

// Create inserts the permit and its first unpaid payment atomically.
func (s *Service) Create(ctx context.Context, req CreatePermitRequest) (*Permit, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	permit := Permit{
		PermitNumber: strings.TrimSpace(req.PermitNumber),
		CarID:        req.CarID,
		PermitType:   req.PermitType,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		DailyRate:    req.DailyRate,
		TotalCost:    req.TotalCost,
	}

	var created *Permit
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		clientID, err := repo.CarOwner(ctx, permit.CarID)
		if err != nil {
			return err
		}
		created, err = repo.Create(ctx, permit)
		if err != nil {
			return err
		}
		return repo.InsertPayment(ctx, created.ID, clientID, InitialCharge(*created), s.clock().In(s.location))
	})
	if err != nil {
		return nil, fmt.Errorf("create permit: %w", err)
	}
	s.logger.Info("permit created",
		slog.Int64("permit_id", created.ID),
		slog.String("permit_type", string(created.PermitType)),
		slog.String("initial_charge", InitialCharge(*created).String()),
	)
	return created, nil
}

// Delete removes the permit and its payments.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeletePayments(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete permit %d: %w", id, err)
	}
	return nil
}
