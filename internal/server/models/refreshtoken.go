package models

import "time"

// RefreshToken is the rotation credential. ID is the opaque 96-character
// token string itself and doubles as the primary key; the row is deleted the
// moment the token is redeemed.
type RefreshToken struct {
	ID          string
	UserID      string
	GeneratedAt time.Time
	ExpiresAt   time.Time
}
