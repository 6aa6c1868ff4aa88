package reports

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/parkdesk/parkdesk/internal/platform/httpx"
	"github.com/parkdesk/parkdesk/internal/shared"
)

// ClientReport aggregates one client's cars, permits and payments.
type ClientReport struct {
	ID           int64           `json:"id"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Email        string          `json:"email"`
	ClientType   string          `json:"client_type"`
	CarCount     int64           `json:"car_count"`
	PermitCount  int64           `json:"permit_count"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalPending decimal.Decimal `json:"total_pending"`
}

// Range restricts permits (and their payments) to those starting inside
// [Start, End]. A zero Range covers everything.
type Range struct {
	Start shared.Date
	End   shared.Date
}

func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r Range) key() string {
	if r.IsZero() {
		return "all"
	}
	return r.Start.String() + ".." + r.End.String()
}

// ParseRange reads the startDate/endDate query pair. Both or neither must be set.
func ParseRange(start, end string) (Range, error) {
	if start == "" && end == "" {
		return Range{}, nil
	}
	if start == "" || end == "" {
		return Range{}, fmt.Errorf("%w: startDate and endDate must be given together", httpx.ErrValidation)
	}
	s, err := shared.ParseDate(start)
	if err != nil {
		return Range{}, err
	}
	e, err := shared.ParseDate(end)
	if err != nil {
		return Range{}, err
	}
	if e.Before(s.Time) {
		return Range{}, fmt.Errorf("%w: endDate is before startDate", httpx.ErrValidation)
	}
	return Range{Start: s, End: e}, nil
}
