package permits

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/parkdesk/parkdesk/internal/billing"
	"github.com/parkdesk/parkdesk/internal/platform/httpx"
	"github.com/parkdesk/parkdesk/internal/shared"
)

var (
	ErrNotFound      = fmt.Errorf("permit not found: %w", httpx.ErrNotFound)
	ErrAlreadyExists = fmt.Errorf("permit number already in use: %w", httpx.ErrDuplicate)
	ErrUnknownCar    = fmt.Errorf("%w: car does not exist", httpx.ErrValidation)
)

// Permit is a parking authorisation for one car.
type Permit struct {
	ID           int64              `json:"id"`
	PermitNumber string             `json:"permit_number"`
	CarID        int64              `json:"car_id"`
	PermitType   billing.PermitType `json:"permit_type"`
	StartDate    shared.Date        `json:"start_date"`
	EndDate      shared.Date        `json:"end_date"`
	DailyRate    decimal.Decimal    `json:"daily_rate"`
	TotalCost    decimal.Decimal    `json:"total_cost"`
	Active       bool               `json:"active"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Summary is a list row with the car plate and owner.
type Summary struct {
	Permit
	LicensePlate string `json:"license_plate"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ClientActive bool   `json:"client_active"`
}

// InitialCharge is the first unpaid payment issued with a new permit: one
// period's rate for monthly permits, the full cost otherwise.
func InitialCharge(p Permit) decimal.Decimal {
	if p.PermitType == billing.PermitMonthly {
		return p.DailyRate
	}
	return p.TotalCost
}
