package reports

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Service builds client reports. Concurrent requests for the same range
// share one query.
type Service struct {
	repo  Repository
	group singleflight.Group
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ClientReports(ctx context.Context, rng Range) ([]ClientReport, error) {
	ch := s.group.DoChan(rng.key(), func() (interface{}, error) {
		return s.repo.ClientReports(context.WithoutCancel(ctx), rng)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("client reports: %w", res.Err)
		}
		return res.Val.([]ClientReport), nil
	}
}
