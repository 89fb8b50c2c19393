package users

import "time"

// User represents a user account. Credentials live with the external
// authentication layer; this service only needs identity and the active
// flag.
type User struct {
	ID        int64
	Email     string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
