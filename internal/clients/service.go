package clients

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

func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.repo.List(ctx, s.clock())
}

func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in ClientInput) (*Client, error) {
	in = normalise(in)
	client, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

func (s *Service) Update(ctx context.Context, id int64, in ClientInput) (*Client, error) {
	in = normalise(in)
	client, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("update client %d: %w", id, err)
	}
	return client, nil
}

// SetActive toggles billing eligibility. Inactive clients are skipped by the
// monthly billing cycle.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("set client %d active=%t: %w", id, active, err)
	}
	return nil
}

// Delete removes the client with its payments, permits and cars.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeletePayments(ctx, id); err != nil {
			return err
		}
		if err := repo.DeletePermits(ctx, id); err != nil {
			return err
		}
		if err := repo.DeleteCars(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete client %d: %w", id, err)
	}
	return nil
}

func normalise(in ClientInput) ClientInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.ClientType == "" {
		in.ClientType = ClientTemp
	}
	return in
}
