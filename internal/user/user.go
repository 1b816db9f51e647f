package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrDuplicateProviderID = errors.New("user: provider id already registered")

// User is the internal identity behind one provider account.
type User struct {
	ID         uuid.UUID
	Name       string
	Provider   string
	ProviderID string
	CreatedAt  int64 // unix seconds
	UpdatedAt  int64
}

// Directory stores users keyed by (provider, providerID). Lookups return
// (nil, nil) when nothing matches.
type Directory interface {
	FindByProviderID(ctx context.Context, provider, providerID string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// Create fails with ErrDuplicateProviderID if another user already
	// holds the same (provider, providerID).
	Create(ctx context.Context, u *User) error

	UpdateName(ctx context.Context, id uuid.UUID, name string) error
}
