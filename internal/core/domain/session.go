package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the server-side half of a browser session, keyed by the
// verified email. Only a hash of the token is ever stored.
type RefreshToken struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}
