package permits

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/parkdesk/parkdesk/internal/billing"
	"github.com/parkdesk/parkdesk/internal/shared"
)

type recordedPayment struct {
	PermitID int64
	ClientID int64
	Amount   decimal.Decimal
	IssuedAt time.Time
}

type memoryPermitRepo struct {
	carOwners  map[int64]int64
	permits    map[int64]Permit
	payments   []recordedPayment
	nextID     int64
	paymentErr error
}

func newMemoryPermitRepo() *memoryPermitRepo {
	return &memoryPermitRepo{carOwners: map[int64]int64{10: 3}, permits: make(map[int64]Permit)}
}

func (r *memoryPermitRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	permits := maps.Clone(r.permits)
	payments := slices.Clone(r.payments)
	if err := fn(ctx, r); err != nil {
		r.permits, r.payments = permits, payments
		return err
	}
	return nil
}

func (r *memoryPermitRepo) List(context.Context) ([]Summary, error) {
	var out []Summary
	for _, p := range r.permits {
		out = append(out, Summary{Permit: p})
	}
	return out, nil
}

func (r *memoryPermitRepo) CarOwner(_ context.Context, carID int64) (int64, error) {
	owner, ok := r.carOwners[carID]
	if !ok {
		return 0, ErrUnknownCar
	}
	return owner, nil
}

func (r *memoryPermitRepo) Create(_ context.Context, p Permit) (*Permit, error) {
	for _, existing := range r.permits {
		if existing.PermitNumber == p.PermitNumber {
			return nil, ErrAlreadyExists
		}
	}
	r.nextID++
	p.ID = r.nextID
	p.Active = true
	r.permits[p.ID] = p
	return &p, nil
}

func (r *memoryPermitRepo) InsertPayment(_ context.Context, permitID, clientID int64, amount decimal.Decimal, issuedAt time.Time) error {
	if r.paymentErr != nil {
		return r.paymentErr
	}
	r.payments = append(r.payments, recordedPayment{PermitID: permitID, ClientID: clientID, Amount: amount, IssuedAt: issuedAt})
	return nil
}

func (r *memoryPermitRepo) DeletePayments(_ context.Context, permitID int64) error {
	r.payments = slices.DeleteFunc(r.payments, func(p recordedPayment) bool { return p.PermitID == permitID })
	return nil
}

func (r *memoryPermitRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.permits[id]; !ok {
		return ErrNotFound
	}
	delete(r.permits, id)
	return nil
}

func date(s string) shared.Date {
	d, err := shared.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func monthlyRequest() CreatePermitRequest {
	return CreatePermitRequest{
		PermitNumber: "PMT-TEST-100",
		CarID:        10,
		PermitType:   billing.PermitMonthly,
		StartDate:    date("2026-03-01"),
		EndDate:      date("2026-03-31"),
		DailyRate:    decimal.NewFromInt(150),
		TotalCost:    decimal.NewFromInt(150),
	}
}

func TestCreateMonthlyIssuesOneRate(t *testing.T) {
	repo := newMemoryPermitRepo()
	svc := NewService(repo, nil, time.UTC)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return now }

	req := monthlyRequest()
	req.TotalCost = decimal.NewFromInt(450)
	permit, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, int64(1), permit.ID)

	require.Len(t, repo.payments, 1)
	require.Equal(t, int64(3), repo.payments[0].ClientID)
	require.True(t, decimal.NewFromInt(150).Equal(repo.payments[0].Amount))
	require.Equal(t, now, repo.payments[0].IssuedAt)
}

func TestCreateDailyIssuesTotalCost(t *testing.T) {
	repo := newMemoryPermitRepo()
	svc := NewService(repo, nil, time.UTC)

	req := monthlyRequest()
	req.PermitType = billing.PermitDaily
	req.DailyRate = decimal.NewFromInt(20)
	req.TotalCost = decimal.RequireFromString("620.50")
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("620.50").Equal(repo.payments[0].Amount))
}

func TestCreateIssuesPaymentInBillingLocation(t *testing.T) {
	loc, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)
	repo := newMemoryPermitRepo()
	svc := NewService(repo, nil, loc)
	svc.clock = func() time.Time { return time.Date(2026, 3, 31, 20, 0, 0, 0, time.UTC) }

	_, err = svc.Create(context.Background(), monthlyRequest())
	require.NoError(t, err)
	require.Equal(t, billing.Period("2026-04"), billing.PeriodOf(repo.payments[0].IssuedAt))
}

func TestCreatePaymentFailureRollsBackPermit(t *testing.T) {
	repo := newMemoryPermitRepo()
	repo.paymentErr = errors.New("connection lost")
	svc := NewService(repo, nil, time.UTC)

	_, err := svc.Create(context.Background(), monthlyRequest())
	require.Error(t, err)
	require.Empty(t, repo.permits)
	require.Empty(t, repo.payments)
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc := NewService(newMemoryPermitRepo(), nil, time.UTC)

	req := monthlyRequest()
	req.EndDate = date("2026-02-01")
	_, err := svc.Create(context.Background(), req)
	require.ErrorContains(t, err, "end_date is before start_date")

	req = monthlyRequest()
	req.DailyRate = decimal.NewFromInt(-1)
	_, err = svc.Create(context.Background(), req)
	require.ErrorContains(t, err, "daily_rate")

	req = monthlyRequest()
	req.CarID = 99
	_, err = svc.Create(context.Background(), req)
	require.ErrorIs(t, err, ErrUnknownCar)
}

func TestDeleteRemovesPayments(t *testing.T) {
	repo := newMemoryPermitRepo()
	svc := NewService(repo, nil, time.UTC)
	permit, err := svc.Create(context.Background(), monthlyRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), permit.ID))
	require.Empty(t, repo.payments)
	require.ErrorIs(t, svc.Delete(context.Background(), permit.ID), ErrNotFound)
}

func TestCreateHandler(t *testing.T) {
	repo := newMemoryPermitRepo()
	router := chi.NewRouter()
	NewHandler(nil, NewService(repo, nil, time.UTC)).MountRoutes(router)

	body := `{"permit_number":"PMT-1","car_id":10,"permit_type":"monthly","start_date":"2026-03-01","end_date":"2026-03-31","daily_rate":150,"total_cost":"300.00"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/permits", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"start_date":"2026-03-01"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/permits", strings.NewReader(`{"permit_number":"PMT-2","car_id":10,"permit_type":"weekly"}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/permits", strings.NewReader(body)))
	require.Equal(t, http.StatusConflict, rr.Code)
}
