package session

import (
	"context"
	"time"
)

// LoginSession carries an OAuth login from the entry endpoint to the
// provider callback: CSRF state, PKCE verifier and where the browser wants
// to land afterwards.
type LoginSession struct {
	SessionID    string    `json:"session_id"`
	Provider     string    `json:"provider"`
	State        string    `json:"state"`
	CodeVerifier string    `json:"code_verifier"`
	Env          string    `json:"env,omitempty"`
	Action       string    `json:"action,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Store defines how login sessions are stored and retrieved.
type Store interface {
	Create(ctx context.Context, s LoginSession) error

	// Consume returns and removes the session in one step, so a callback
	// can be completed at most once. Missing or expired sessions return
	// (nil, nil).
	Consume(ctx context.Context, sessionID string) (*LoginSession, error)
}
