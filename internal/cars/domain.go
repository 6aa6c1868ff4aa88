package cars

import (
	"fmt"
	"time"

	"github.com/parkdesk/parkdesk/internal/platform/httpx"
)

var (
	ErrNotFound      = fmt.Errorf("car not found: %w", httpx.ErrNotFound)
	ErrAlreadyExists = fmt.Errorf("license plate already registered: %w", httpx.ErrDuplicate)
	ErrUnknownClient = fmt.Errorf("%w: client does not exist", httpx.ErrValidation)
)

// Car is a vehicle registered to a client.
type Car struct {
	ID           int64     `json:"id"`
	ClientID     int64     `json:"client_id"`
	LicensePlate string    `json:"license_plate"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Color        *string   `json:"color"`
	Year         *int32    `json:"year"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary is a list row enriched with the owner's name and billing state.
// OutstandingPayments counts the owner's unpaid payments across all cars.
type Summary struct {
	Car
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	OutstandingPayments int64  `json:"outstanding_payments"`
	HasActivePermit     bool   `json:"has_active_permit"`
}

// ListFilter narrows the car listing.
type ListFilter struct {
	ClientID *int64
	AsOf     time.Time
}
