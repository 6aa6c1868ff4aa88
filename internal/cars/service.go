package cars

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// List returns cars, optionally restricted to one client.
func (s *Service) List(ctx context.Context, clientID *int64) ([]Summary, error) {
	return s.repo.List(ctx, ListFilter{ClientID: clientID, AsOf: s.clock()})
}

// Create registers a car. Plates are stored upper-cased without surrounding space.
func (s *Service) Create(ctx context.Context, req CreateCarRequest) (*Car, error) {
	req.LicensePlate = strings.ToUpper(strings.TrimSpace(req.LicensePlate))
	req.Make = strings.TrimSpace(req.Make)
	req.Model = strings.TrimSpace(req.Model)

	exists, err := s.repo.ClientExists(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("check client %d: %w", req.ClientID, err)
	}
	if !exists {
		return nil, ErrUnknownClient
	}

	car, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create car: %w", err)
	}
	return car, nil
}

// Delete removes a car together with its permits and their payments.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeletePayments(ctx, id); err != nil {
			return err
		}
		if err := repo.DeletePermits(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete car %d: %w", id, err)
	}
	return nil
}
