package refresh

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is the single outstanding refresh token of a user.
type Record struct {
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists refresh tokens. Logins rotate by calling DeleteByUser
// before Save; token refreshes redeem with Consume. Implementations key records by user id, so a Save that races
// another Save for the same user replaces it instead of adding a second row.
type Store interface {
	Save(ctx context.Context, rec Record) error

	// FindByUser returns (nil, nil) when the user has no record.
	FindByUser(ctx context.Context, userID uuid.UUID) (*Record, error)

	// DeleteByUser is a no-op when the user has no record.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error

	// Consume deletes the user's record only if it still holds token and
	// reports whether it did. Of several concurrent calls with the same
	// token at most one returns true.
	Consume(ctx context.Context, userID uuid.UUID, token string) (bool, error)
}
