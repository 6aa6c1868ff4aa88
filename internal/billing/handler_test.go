package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type stubCycleRunner struct {
	*Service
	result Result
	err    error
	days   []time.Time
}

func (s *stubCycleRunner) Run(_ context.Context, day time.Time) (Result, error) {
	s.days = append(s.days, day)
	return s.result, s.err
}

func newStubRunner(result Result, err error) *stubCycleRunner {
	svc := NewService(nil, nil, nil, nil, time.UTC)
	svc.clock = func() time.Time { return time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC) }
	return &stubCycleRunner{Service: svc, result: result, err: err}
}

func serveGenerate(t *testing.T, runner CycleRunner, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(nil, runner).MountRoutes(r)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPost, "/payments/generate-monthly", nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, "/payments/generate-monthly", strings.NewReader(body))
	}
	req.RemoteAddr = "192.0.2.10:5555"
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestGenerateMonthlyDefaultsToToday(t *testing.T) {
	runner := newStubRunner(Result{
		Period:   "2026-03",
		Created:  1,
		Extended: 1,
		Message:  "Generated 1 invoices. Extended 1 expired permits.",
	}, nil)

	rr := serveGenerate(t, runner, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, []time.Time{day("2026-03-10")}, runner.days)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Equal(t, true, body["success"])
	require.Equal(t, "Generated 1 invoices. Extended 1 expired permits.", body["message"])
	require.EqualValues(t, 1, body["created"])
	require.EqualValues(t, 1, body["createdCount"])
	require.EqualValues(t, 1, body["extendedCount"])
	require.EqualValues(t, 0, body["skippedCount"])
	require.Equal(t, []any{}, body["rejected"])
}

func TestGenerateMonthlyExplicitDate(t *testing.T) {
	runner := newStubRunner(Result{Period: "2026-02"}, nil)

	rr := serveGenerate(t, runner, `{"date":"2026-02-01"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, []time.Time{day("2026-02-01")}, runner.days)
}

func TestGenerateMonthlyInvalidDate(t *testing.T) {
	runner := newStubRunner(Result{}, nil)

	rr := serveGenerate(t, runner, `{"date":"yesterday"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Empty(t, runner.days)
}

func TestGenerateMonthlyConflict(t *testing.T) {
	rr := serveGenerate(t, newStubRunner(Result{}, ErrCycleInProgress), "")
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestGenerateMonthlyStoreFailure(t *testing.T) {
	rr := serveGenerate(t, newStubRunner(Result{}, storeErr("insert invoice", errors.New("disk full"))), "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.NotContains(t, rr.Body.String(), "disk full")
	require.NotContains(t, rr.Body.String(), "created")
}
