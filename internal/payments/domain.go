package payments

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/parkdesk/parkdesk/internal/platform/httpx"
	"github.com/parkdesk/parkdesk/internal/shared"
)

var ErrNotFound = fmt.Errorf("payment not found: %w", httpx.ErrNotFound)

// Payment is an invoiced or settled amount against a permit.
type Payment struct {
	ID            int64           `json:"id"`
	PermitID      int64           `json:"permit_id"`
	ClientID      int64           `json:"client_id"`
	Amount        decimal.Decimal `json:"amount"`
	IsPaid        bool            `json:"is_paid"`
	PaidDate      *time.Time      `json:"paid_date"`
	BillingPeriod string          `json:"billing_period"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Summary is a list row with permit and client details.
type Summary struct {
	Payment
	PermitNumber string          `json:"permit_number"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	StartDate    shared.Date     `json:"start_date"`
	EndDate      shared.Date     `json:"end_date"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
}

// ListFilter narrows the payment listing.
type ListFilter struct {
	ClientID *int64
	IsPaid   *bool
}
