package permits

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/parkdesk/parkdesk/internal/billing"
	"github.com/parkdesk/parkdesk/internal/platform/httpx"
	"github.com/parkdesk/parkdesk/internal/shared"
)

type CreatePermitRequest struct {
	PermitNumber string             `json:"permit_number" validate:"required,max=40"`
	CarID        int64              `json:"car_id" validate:"required,gt=0"`
	PermitType   billing.PermitType `json:"permit_type" validate:"required,oneof=daily monthly custom"`
	StartDate    shared.Date        `json:"start_date"`
	EndDate      shared.Date        `json:"end_date"`
	DailyRate    decimal.Decimal    `json:"daily_rate"`
	TotalCost    decimal.Decimal    `json:"total_cost"`
}

// Check enforces the rules the struct tags cannot express.
func (r CreatePermitRequest) Check() error {
	switch {
	case r.StartDate.IsZero() || r.EndDate.IsZero():
		return fmt.Errorf("%w: start_date and end_date are required", httpx.ErrValidation)
	case r.EndDate.Before(r.StartDate.Time):
		return fmt.Errorf("%w: end_date is before start_date", httpx.ErrValidation)
	case r.DailyRate.IsNegative():
		return fmt.Errorf("%w: daily_rate must not be negative", httpx.ErrValidation)
	case r.TotalCost.IsNegative():
		return fmt.Errorf("%w: total_cost must not be negative", httpx.ErrValidation)
	}
	return nil
}
