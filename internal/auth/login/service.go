package login

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"hearhere-auth/internal/auth"
	"hearhere-auth/internal/auth/refresh"
	"hearhere-auth/internal/auth/token"
	"hearhere-auth/internal/logger"
	"hearhere-auth/internal/user"

	"github.com/google/uuid"
)

var (
	ErrNameEncoding        = errors.New("login: display name cannot be url-encoded")
	ErrRefreshTokenRevoked = errors.New("login: refresh token is not current")
)

type PrincipalResolver interface {
	Resolve(provider string, attrs map[string]any) (auth.Principal, error)
}

type TokenIssuer interface {
	IssueAccess(userID string, ttl time.Duration) (string, error)
	IssueRefresh(userID string, ttl time.Duration) (string, error)
	VerifyKind(tokenString string, kind token.Kind) (string, error)
	ExpiresAt(tokenString string) (time.Time, error)
}

type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Redirects  Redirects
}

// Service completes provider logins: it finds or creates the user, rotates
// the refresh token, mints an access token and builds the redirect URL.
type Service struct {
	principals PrincipalResolver
	users      user.Directory
	refresh    refresh.Store
	tokens     TokenIssuer
	cfg        Config

	newID func() uuid.UUID
	now   func() time.Time
}

func NewService(
	principals PrincipalResolver,
	users user.Directory,
	refreshStore refresh.Store,
	tokens TokenIssuer,
	cfg Config,
) *Service {
	return &Service{
		principals: principals,
		users:      users,
		refresh:    refreshStore,
		tokens:     tokens,
		cfg:        cfg,
		newID:      uuid.New,
		now:        time.Now,
	}
}

// Result is the outcome of a completed login.
type Result struct {
	User         user.User
	AccessToken  string
	RefreshToken string
	RedirectURL  string
	Created      bool // first login for this principal
}

// TokenPair is returned by Refresh.
type TokenPair struct {
	UserID       uuid.UUID
	AccessToken  string
	RefreshToken string
}

// Complete runs the login state machine for one provider callback. Any error
// aborts the attempt; the caller must not redirect on error.
func (s *Service) Complete(
	ctx context.Context,
	provider string,
	attrs map[string]any,
	intent Intent,
) (*Result, error) {

	// 1. Principal
	p, err := s.principals.Resolve(provider, attrs)
	if err != nil {
		return nil, fmt.Errorf("login: resolve principal: %w", err)
	}

	// Destination and name encoding are checked before anything is written,
	// so a misconfigured template leaves no state behind.
	tmpl, err := s.cfg.Redirects.Template(intent)
	if err != nil {
		return nil, err
	}
	encodedName, err := encodeName(p.Name)
	if err != nil {
		return nil, err
	}

	// 2. User
	u, created, err := s.resolveUser(ctx, p)
	if err != nil {
		return nil, err
	}

	// 3. Refresh token
	refreshToken, err := s.issueRefresh(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	// 4. Access token
	accessToken, err := s.tokens.IssueAccess(u.ID.String(), s.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("login: issue access token: %w", err)
	}

	// 5. Redirect
	redirectURL := fmt.Sprintf(tmpl, u.ID.String(), encodedName, accessToken, refreshToken)

	branch := "existing"
	if created {
		branch = "new"
	}
	logger.Info("login completed", map[string]any{
		"user_id":  u.ID.String(),
		"provider": p.Provider,
		"branch":   branch,
		"intent":   intent.Key(),
	})

	return &Result{
		User:         *u,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		RedirectURL:  redirectURL,
		Created:      created,
	}, nil
}

// resolveUser finds the user for p or creates one. Existing users lose
// their stored refresh token here and get their display name refreshed.
func (s *Service) resolveUser(ctx context.Context, p auth.Principal) (*user.User, bool, error) {
	existing, err := s.users.FindByProviderID(ctx, p.Provider, p.ProviderID)
	if err != nil {
		return nil, false, fmt.Errorf("login: find user: %w", err)
	}

	if existing == nil {
		u := &user.User{
			ID:         s.newID(),
			Name:       p.Name,
			Provider:   p.Provider,
			ProviderID: p.ProviderID,
		}

		err := s.users.Create(ctx, u)
		if err == nil {
			return u, true, nil
		}
		if !errors.Is(err, user.ErrDuplicateProviderID) {
			return nil, false, fmt.Errorf("login: create user: %w", err)
		}

		// lost a concurrent first login; continue as a returning user
		logger.Warn("concurrent first login, re-reading user", map[string]any{
			"provider": p.Provider,
		})
		existing, err = s.users.FindByProviderID(ctx, p.Provider, p.ProviderID)
		if err != nil {
			return nil, false, fmt.Errorf("login: re-read user: %w", err)
		}
		if existing == nil {
			return nil, false, fmt.Errorf("login: user for %s vanished after duplicate create", p.Provider)
		}
	}

	if err := s.refresh.DeleteByUser(ctx, existing.ID); err != nil {
		return nil, false, fmt.Errorf("login: revoke previous refresh token: %w", err)
	}

	if existing.Name != p.Name {
		if err := s.users.UpdateName(ctx, existing.ID, p.Name); err != nil {
			return nil, false, fmt.Errorf("login: update name: %w", err)
		}
		existing.Name = p.Name
	}

	return existing, false, nil
}

// issueRefresh mints and stores a new refresh token. Callers delete the
// previous one first.
func (s *Service) issueRefresh(ctx context.Context, userID uuid.UUID) (string, error) {
	tok, err := s.tokens.IssueRefresh(userID.String(), s.cfg.RefreshTTL)
	if err != nil {
		return "", fmt.Errorf("login: issue refresh token: %w", err)
	}

	expiresAt, err := s.tokens.ExpiresAt(tok)
	if err != nil {
		return "", fmt.Errorf("login: read refresh expiry: %w", err)
	}

	rec := refresh.Record{
		UserID:    userID,
		Token:     tok,
		ExpiresAt: expiresAt,
		CreatedAt: s.now(),
	}
	if err := s.refresh.Save(ctx, rec); err != nil {
		return "", fmt.Errorf("login: save refresh token: %w", err)
	}
	return tok, nil
}

// Refresh exchanges the user's current refresh token for a new pair. A
// verified token that is no longer the stored one is rejected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	sub, err := s.tokens.VerifyKind(refreshToken, token.KindRefresh)
	if err != nil {
		return nil, fmt.Errorf("login: refresh: %w", err)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("login: refresh: %w: subject %q", token.ErrInvalidToken, sub)
	}

	// check and delete in one step so a token is redeemed once
	consumed, err := s.refresh.Consume(ctx, userID, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("login: refresh: %w", err)
	}
	if !consumed {
		return nil, ErrRefreshTokenRevoked
	}

	newRefresh, err := s.issueRefresh(ctx, userID)
	if err != nil {
		return nil, err
	}
	access, err := s.tokens.IssueAccess(userID.String(), s.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("login: issue access token: %w", err)
	}

	return &TokenPair{
		UserID:       userID,
		AccessToken:  access,
		RefreshToken: newRefresh,
	}, nil
}

// Revoke drops the user's refresh token. Outstanding access tokens stay
// valid until they expire.
func (s *Service) Revoke(ctx context.Context, userID uuid.UUID) error {
	if err := s.refresh.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("login: revoke: %w", err)
	}
	return nil
}

func encodeName(name string) (string, error) {
	if !utf8.ValidString(name) {
		return "", ErrNameEncoding
	}
	return url.QueryEscape(name), nil
}
