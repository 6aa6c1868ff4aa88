package shared

import (
	"errors"
	"fmt"

	"github.com/parkdesk/parkdesk/internal/platform/httpx"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = fmt.Errorf("not found: %w", httpx.ErrNotFound)
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", httpx.ErrUnauthorized)
	// ErrLockHeld is returned when another holder owns a run lock.
	ErrLockHeld = errors.New("lock already held")
)
