package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/parkdesk/parkdesk/internal/platform/httpx"
)

// CycleName identifies the monthly billing cycle in locks, logs and metrics.
const CycleName = "billing:monthly"

// ExtensionDays is the fixed renewal length applied to an expired monthly permit.
// It is deliberately not calendar-month aware.
const ExtensionDays = 30

// PermitType enumerates permit kinds.
type PermitType string

const (
	PermitDaily   PermitType = "daily"
	PermitMonthly PermitType = "monthly"
	PermitCustom  PermitType = "custom"
)

// Valid reports whether t is a known permit type.
func (t PermitType) Valid() bool {
	switch t {
	case PermitDaily, PermitMonthly, PermitCustom:
		return true
	}
	return false
}

var (
	// ErrStoreUnavailable marks any persistence failure. The whole cycle is rolled back.
	ErrStoreUnavailable = fmt.Errorf("billing: store unavailable: %w", httpx.ErrUnavailable)
	// ErrCycleInProgress is returned when another billing cycle holds the run lock.
	ErrCycleInProgress = fmt.Errorf("billing: cycle already running: %w", httpx.ErrConflict)
	// ErrDataInconsistency marks a permit whose stored state breaks its invariants.
	ErrDataInconsistency = errors.New("billing: data inconsistency")
	// ErrDuplicateInvoice is raised by the store when the (permit, period) backstop fires.
	ErrDuplicateInvoice = errors.New("billing: invoice already exists for period")
	// ErrPermitNotFound is raised when an extension targets a missing permit.
	ErrPermitNotFound = errors.New("billing: permit not found")
	// ErrInvalidDate rejects a malformed cycle date supplied by a caller.
	ErrInvalidDate = fmt.Errorf("billing: invalid date: %w", httpx.ErrValidation)
)

// Period is a calendar year-month (YYYY-MM), the invoice deduplication key.
type Period string

// PeriodOf returns the billing period containing t, evaluated in t's location.
func PeriodOf(t time.Time) Period {
	return Period(t.Format("2006-01"))
}

// Permit is the billing view of a permit joined with its owning client.
type Permit struct {
	ID           int64
	PermitNumber string
	CarID        int64
	ClientID     int64
	Type         PermitType
	StartDate    time.Time
	EndDate      time.Time
	// DailyRate is the recurring monthly charge for monthly permits.
	DailyRate decimal.Decimal
	// TotalCost caps the sum of all payments ever issued for the permit.
	TotalCost decimal.Decimal
	Active    bool
}

// Validate checks the stored invariants the engine relies on.
func (p Permit) Validate() error {
	if civilDate(p.EndDate).Before(civilDate(p.StartDate)) {
		return fmt.Errorf("%w: end date %s before start date %s", ErrDataInconsistency,
			p.EndDate.Format(time.DateOnly), p.StartDate.Format(time.DateOnly))
	}
	if p.DailyRate.IsNegative() {
		return fmt.Errorf("%w: negative rate %s", ErrDataInconsistency, p.DailyRate)
	}
	if p.TotalCost.IsNegative() {
		return fmt.Errorf("%w: negative total cost %s", ErrDataInconsistency, p.TotalCost)
	}
	return nil
}

// Invoice is a new unpaid payment row.
type Invoice struct {
	PermitID int64
	ClientID int64
	Amount   decimal.Decimal
	Period   Period
	IssuedAt time.Time
}

// Rejection records a permit skipped because of a data defect.
type Rejection struct {
	PermitID int64  `json:"permit_id"`
	Reason   string `json:"reason"`
}

// Result summarises one billing cycle.
type Result struct {
	Period   Period      `json:"period"`
	Created  int         `json:"created"`
	Skipped  int         `json:"skipped"`
	Extended int         `json:"extended"`
	Message  string      `json:"message"`
	Rejected []Rejection `json:"rejected,omitempty"`
}

func (r Result) summary() string {
	return fmt.Sprintf("Generated %d invoices. Extended %d expired permits.", r.Created, r.Extended)
}

// civilDate strips the clock and location, keeping the calendar date at UTC midnight.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
