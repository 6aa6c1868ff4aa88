package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/parkdesk/parkdesk/internal/billing"
)

type stubBillingRunner struct {
	today time.Time
	err   error
	days  []time.Time
}

func (s *stubBillingRunner) Run(_ context.Context, day time.Time) (billing.Result, error) {
	s.days = append(s.days, day)
	if s.err != nil {
		return billing.Result{}, s.err
	}
	return billing.Result{Period: billing.PeriodOf(day), Created: 1}, nil
}

func (s *stubBillingRunner) Today() time.Time { return s.today }

func (s *stubBillingRunner) ParseDate(raw string) (time.Time, error) {
	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, billing.ErrInvalidDate
	}
	return day, nil
}

func TestBillingCycleJobDefaultsToToday(t *testing.T) {
	today := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	runner := &stubBillingRunner{today: today}
	task, err := NewBillingCycleTask(BillingCyclePayload{})
	require.NoError(t, err)

	require.NoError(t, NewBillingCycleJob(runner, nil).Handle(context.Background(), task))
	require.Equal(t, []time.Time{today}, runner.days)
}

func TestBillingCycleJobUsesPayloadDate(t *testing.T) {
	runner := &stubBillingRunner{today: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}
	task, err := NewBillingCycleTask(BillingCyclePayload{Date: "2025-03-15"})
	require.NoError(t, err)

	require.NoError(t, NewBillingCycleJob(runner, nil).Handle(context.Background(), task))
	require.Len(t, runner.days, 1)
	require.Equal(t, "2025-03-15", runner.days[0].Format(time.DateOnly))
}

func TestBillingCycleJobSkipsRetry(t *testing.T) {
	cases := map[string]struct {
		payload []byte
		err     error
	}{
		"malformed payload": {payload: []byte("{")},
		"invalid date":      {payload: []byte(`{"date":"03/15/2025"}`)},
		"cycle in progress": {payload: nil, err: billing.ErrCycleInProgress},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			runner := &stubBillingRunner{err: tc.err}
			err := NewBillingCycleJob(runner, nil).Handle(context.Background(), asynq.NewTask(TaskBillingMonthly, tc.payload))
			require.ErrorIs(t, err, asynq.SkipRetry)
		})
	}
}

func TestBillingCycleJobRetriesStoreFailures(t *testing.T) {
	runner := &stubBillingRunner{err: billing.ErrStoreUnavailable}
	err := NewBillingCycleJob(runner, nil).Handle(context.Background(), asynq.NewTask(TaskBillingMonthly, nil))
	require.ErrorIs(t, err, billing.ErrStoreUnavailable)
	require.False(t, errors.Is(err, asynq.SkipRetry))
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

func TestHealthHandler(t *testing.T) {
	serve := func(h *Handler) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		h.MountRoutes(r)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		return rec
	}

	rec := serve(NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 2, Retry: 1}}, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body queueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, queueHealth{Queue: QueueDefault, Pending: 2, Retry: 1}, body)

	rec = serve(NewHandler(stubInspector{err: errors.New("dial tcp: refused")}, nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotContains(t, rec.Body.String(), "refused")

	rec = serve(NewHandler(nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
