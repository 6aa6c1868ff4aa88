package payments

import "time"

// UpdatePaymentRequest marks a payment paid or unpaid. PaidDate defaults to
// now when paying and is cleared when unpaying.
type UpdatePaymentRequest struct {
	IsPaid   *bool      `json:"is_paid" validate:"required"`
	PaidDate *time.Time `json:"paid_date"`
}
