package payments

import (
	"context"
	"fmt"
	"time"
)

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Summary, error) {
	return s.repo.List(ctx, filter)
}

// Update sets the paid flag. Paying without a date stamps the current time;
// unpaying always clears the date.
func (s *Service) Update(ctx context.Context, id int64, req UpdatePaymentRequest) (*Payment, error) {
	isPaid := req.IsPaid != nil && *req.IsPaid
	var paidDate *time.Time
	if isPaid {
		if req.PaidDate != nil {
			paidDate = req.PaidDate
		} else {
			now := s.clock().UTC()
			paidDate = &now
		}
	}
	payment, err := s.repo.SetPaid(ctx, id, isPaid, paidDate)
	if err != nil {
		return nil, fmt.Errorf("update payment %d: %w", id, err)
	}
	return payment, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete payment %d: %w", id, err)
	}
	return nil
}
