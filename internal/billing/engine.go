package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Engine applies the extension and invoicing rules to every eligible permit
// inside a single store transaction.
type Engine struct {
	store    TxStore
	logger   *slog.Logger
	location *time.Location
	clock    func() time.Time
}

// NewEngine constructs an Engine. Billing dates are evaluated in loc.
func NewEngine(store TxStore, logger *slog.Logger, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		store:    store,
		logger:   logger,
		location: loc,
		clock:    time.Now,
	}
}

type invoiceDecision int

const (
	invoiceNone invoiceDecision = iota
	invoiceCreated
	invoiceSkippedCap
	invoiceSkippedPeriod
)

// RunMonthlyBilling runs one cycle for the calendar date of today. On error no
// counts are returned and nothing has been committed.
func (e *Engine) RunMonthlyBilling(ctx context.Context, today time.Time) (Result, error) {
	day := civilDate(today.In(e.location))
	period := PeriodOf(day)

	var result Result
	err := e.store.WithTx(ctx, func(ctx context.Context, store Store) error {
		result = Result{Period: period}

		permits, err := store.ListEligibleMonthlyPermits(ctx, day)
		if err != nil {
			return storeErr("list eligible permits", err)
		}
		for i := range permits {
			// Cancellation is only honoured between permits.
			if err := ctx.Err(); err != nil {
				return err
			}
			permit := permits[i]
			if err := permit.Validate(); err != nil {
				result.Rejected = append(result.Rejected, Rejection{PermitID: permit.ID, Reason: err.Error()})
				e.log().Warn("permit rejected", slog.Int64("permit_id", permit.ID), slog.Any("error", err))
				continue
			}

			extended, err := e.extend(ctx, store, &permit, day)
			if err != nil {
				return fmt.Errorf("permit %d: %w", permit.ID, err)
			}
			if extended {
				result.Extended++
			}

			decision, err := e.invoice(ctx, store, permit, period, day)
			if err != nil {
				return fmt.Errorf("permit %d: %w", permit.ID, err)
			}
			switch decision {
			case invoiceCreated:
				result.Created++
			case invoiceSkippedCap, invoiceSkippedPeriod:
				result.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrStoreUnavailable) && ctx.Err() == nil {
			err = storeErr("transaction", err)
		}
		return Result{}, err
	}

	result.Message = result.summary()
	return result, nil
}

// extend pushes an expired permit forward and raises its cap by one period's
// charge. permit is updated in place so invoicing sees the new values.
func (e *Engine) extend(ctx context.Context, store Store, permit *Permit, day time.Time) (bool, error) {
	if !civilDate(permit.EndDate).Before(day) {
		return false, nil
	}
	newEnd := day.AddDate(0, 0, ExtensionDays)
	newTotal := permit.TotalCost.Add(permit.DailyRate)
	if err := store.ExtendPermit(ctx, permit.ID, newEnd, newTotal); err != nil {
		return false, storeErr("extend permit", err)
	}
	e.log().Info("permit extended",
		slog.Int64("permit_id", permit.ID),
		slog.String("end_date", newEnd.Format(time.DateOnly)),
		slog.String("total_cost", newTotal.String()),
	)
	permit.EndDate = newEnd
	permit.TotalCost = newTotal
	return true, nil
}

func (e *Engine) invoice(ctx context.Context, store Store, permit Permit, period Period, day time.Time) (invoiceDecision, error) {
	billed, err := store.SumPaymentsForPermit(ctx, permit.ID)
	if err != nil {
		return invoiceNone, storeErr("sum payments", err)
	}
	if billed.GreaterThanOrEqual(permit.TotalCost) {
		return invoiceSkippedCap, nil
	}

	exists, err := store.HasPaymentInPeriod(ctx, permit.ID, period)
	if err != nil {
		return invoiceNone, storeErr("check period invoice", err)
	}
	if exists {
		return invoiceSkippedPeriod, nil
	}

	amount := decimal.Min(permit.DailyRate, permit.TotalCost.Sub(billed))
	if !amount.IsPositive() {
		return invoiceNone, nil
	}

	invoice := Invoice{
		PermitID: permit.ID,
		ClientID: permit.ClientID,
		Amount:   amount,
		Period:   period,
		IssuedAt: e.issueTime(period, day),
	}
	if err := store.InsertUnpaidPayment(ctx, invoice); err != nil {
		return invoiceNone, storeErr("insert invoice", err)
	}
	e.log().Info("invoice issued",
		slog.Int64("permit_id", permit.ID),
		slog.Int64("client_id", permit.ClientID),
		slog.String("amount", amount.String()),
		slog.String("period", string(period)),
	)
	return invoiceCreated, nil
}

// issueTime is the wall clock when it lies in the cycle's period, otherwise the
// start of the cycle day, so created_at always falls inside the billed period.
func (e *Engine) issueTime(period Period, day time.Time) time.Time {
	now := e.clock().In(e.location)
	if PeriodOf(now) == period {
		return now
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.location)
}

func (e *Engine) log() *slog.Logger {
	if e.logger != nil {
		return e.logger.With(slog.String("job", CycleName))
	}
	return slog.Default().With(slog.String("job", CycleName))
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
