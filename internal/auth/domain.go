package auth

import "time"

// Role controls what a user may do in the dashboard.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleFrontDesk Role = "front_desk"
	RoleReadOnly  Role = "read_only"
)

// User represents an authenticated user account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Identity is the public view returned after a successful login.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
