package refresh

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hearhere-auth/internal/db"

	"github.com/google/uuid"
)

type SQLStore struct {
	db *db.DB
}

func NewSQLStore(d *db.DB) *SQLStore {
	return &SQLStore{db: d}
}

func (s *SQLStore) Save(ctx context.Context, rec Record) error {
	if rec.UserID == uuid.Nil || rec.Token == "" {
		return errors.New("refresh: missing user_id or token")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET token = excluded.token,
		    expires_at = excluded.expires_at,
		    created_at = excluded.created_at
	`,
		rec.UserID.String(),
		rec.Token,
		rec.ExpiresAt.Unix(),
		rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("refresh: save: %w", err)
	}
	return nil
}

func (s *SQLStore) FindByUser(ctx context.Context, userID uuid.UUID) (*Record, error) {
	var (
		token              string
		expiresAt, created int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT token, expires_at, created_at
		FROM refresh_tokens
		WHERE user_id = $1
	`, userID.String()).Scan(&token, &expiresAt, &created)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: find: %w", err)
	}

	return &Record{
		UserID:    userID,
		Token:     token,
		ExpiresAt: time.Unix(expiresAt, 0),
		CreatedAt: time.Unix(created, 0),
	}, nil
}

func (s *SQLStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens WHERE user_id = $1
	`, userID.String())
	if err != nil {
		return fmt.Errorf("refresh: delete: %w", err)
	}
	return nil
}

func (s *SQLStore) Consume(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens WHERE user_id = $1 AND token = $2
	`, userID.String(), token)
	if err != nil {
		return false, fmt.Errorf("refresh: consume: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("refresh: consume: %w", err)
	}
	return n == 1, nil
}
