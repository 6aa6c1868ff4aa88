package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store is the persistence surface the engine drives. Every mutation the
// cycle makes goes through it.
type Store interface {
	// ListEligibleMonthlyPermits returns monthly permits of active clients ordered
	// by id. asOf is the cycle date; eligibility does not depend on it.
	ListEligibleMonthlyPermits(ctx context.Context, asOf time.Time) ([]Permit, error)
	ExtendPermit(ctx context.Context, id int64, newEndDate time.Time, newTotalCost decimal.Decimal) error
	SumPaymentsForPermit(ctx context.Context, id int64) (decimal.Decimal, error)
	HasPaymentInPeriod(ctx context.Context, permitID int64, period Period) (bool, error)
	InsertUnpaidPayment(ctx context.Context, invoice Invoice) error
}

// TxStore runs a unit of work atomically. fn receives a Store bound to the
// transaction; returning an error rolls everything back.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(context.Context, Store) error) error
}
