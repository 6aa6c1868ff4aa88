package clients

import (
	"fmt"
	"time"

	"github.com/parkdesk/parkdesk/internal/platform/httpx"
)

// ClientType distinguishes staff from temporary parkers.
type ClientType string

const (
	ClientEmployee ClientType = "employee"
	ClientTemp     ClientType = "temp"
)

var (
	ErrNotFound      = fmt.Errorf("client not found: %w", httpx.ErrNotFound)
	ErrAlreadyExists = fmt.Errorf("client email already registered: %w", httpx.ErrDuplicate)
)

// Client is a person or organisation holding parking permits.
type Client struct {
	ID         int64      `json:"id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Email      string     `json:"email"`
	Phone      *string    `json:"phone"`
	ClientType ClientType `json:"client_type"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Summary is a list row. HasActivePermit is true when any of the client's
// permits ends on or after the listing date.
type Summary struct {
	Client
	HasActivePermit bool `json:"has_active_permit"`
}
