package reports

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/parkdesk/parkdesk/internal/platform/httpx"
)

type blockingRepo struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	last    Range
}

func (r *blockingRepo) ClientReports(_ context.Context, rng Range) ([]ClientReport, error) {
	if r.calls.Add(1) == 1 && r.started != nil {
		close(r.started)
	}
	if r.release != nil {
		<-r.release
	}
	r.last = rng
	return []ClientReport{{ID: 1, FirstName: "James", TotalPaid: decimal.NewFromInt(150), TotalPending: decimal.Zero}}, nil
}

func TestParseRange(t *testing.T) {
	rng, err := ParseRange("", "")
	require.NoError(t, err)
	require.True(t, rng.IsZero())

	rng, err = ParseRange("2026-01-01", "2026-03-31")
	require.NoError(t, err)
	require.Equal(t, "2026-01-01..2026-03-31", rng.key())

	_, err = ParseRange("2026-01-01", "")
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = ParseRange("2026-04-01", "2026-03-31")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestConcurrentReportsShareOneQuery(t *testing.T) {
	repo := &blockingRepo{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(repo)

	var wg sync.WaitGroup
	results := make([][]ClientReport, 5)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = svc.ClientReports(context.Background(), Range{})
	}()
	<-repo.started
	for i := 1; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = svc.ClientReports(context.Background(), Range{})
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	require.Equal(t, int32(1), repo.calls.Load())
	for _, res := range results {
		require.Len(t, res, 1)
	}
}

func TestReportsCallerCancellation(t *testing.T) {
	repo := &blockingRepo{release: make(chan struct{})}
	defer close(repo.release)
	svc := NewService(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.ClientReports(ctx, Range{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestReportsHandler(t *testing.T) {
	repo := &blockingRepo{}
	router := chi.NewRouter()
	NewHandler(nil, NewService(repo)).MountRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports?startDate=2026-01-01&endDate=2026-01-31", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "2026-01-31", repo.last.End.String())
	require.Contains(t, rr.Body.String(), `"first_name":"James"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/reports?startDate=yesterday&endDate=2026-01-31", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
