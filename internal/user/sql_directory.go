package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hearhere-auth/internal/db"

	"github.com/google/uuid"
)

// SQLDirectory is the database-backed Directory. The UNIQUE constraint on
// (provider, provider_id) settles concurrent first logins.
type SQLDirectory struct {
	db  *db.DB
	now func() time.Time
}

func NewSQLDirectory(d *db.DB) *SQLDirectory {
	return &SQLDirectory{db: d, now: time.Now}
}

const selectUser = `
	SELECT id, name, provider, provider_id, created_at, updated_at
	FROM users
`

func (s *SQLDirectory) FindByProviderID(
	ctx context.Context,
	provider string,
	providerID string,
) (*User, error) {
	row := s.db.QueryRowContext(ctx, selectUser+`
		WHERE provider = $1
		  AND provider_id = $2
	`,
		provider,
		providerID,
	)
	return scanUser(row)
}

func (s *SQLDirectory) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.db.QueryRowContext(ctx, selectUser+`
		WHERE id = $1
	`, id.String())
	return scanUser(row)
}

func (s *SQLDirectory) Create(ctx context.Context, u *User) error {
	if u == nil || u.ID == uuid.Nil {
		return errors.New("user: id is required")
	}

	now := s.now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, provider, provider_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		u.ID.String(),
		u.Name,
		u.Provider,
		u.ProviderID,
		now,
		now,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateProviderID, u.Provider, u.ProviderID)
		}
		return fmt.Errorf("user: create: %w", err)
	}

	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

func (s *SQLDirectory) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $1, updated_at = $2
		WHERE id = $3
	`,
		name,
		s.now().Unix(),
		id.String(),
	)
	if err != nil {
		return fmt.Errorf("user: update name: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u  User
		id string
	)
	err := row.Scan(&id, &u.Name, &u.Provider, &u.ProviderID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user: scan: %w", err)
	}

	u.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("user: bad id %q: %w", id, err)
	}
	return &u, nil
}
