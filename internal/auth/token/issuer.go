// Package token issues and verifies the signed access and refresh
// credentials handed to clients after login.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrExpiredToken     = errors.New("token: expired")
	ErrMalformedToken   = errors.New("token: malformed")
	ErrInvalidSignature = errors.New("token: invalid signature")
	ErrInvalidToken     = errors.New("token: invalid claims")
	ErrMissingSecret    = errors.New("token: missing signing secret")
)

// Kind distinguishes access from refresh credentials.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the JWT payload. Subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
	Kind Kind `json:"typ"`
}

// Issuer signs HS256 tokens with a process-wide secret.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type Option func(*Issuer)

// WithIssuer sets the "iss" claim and requires it on verification.
func WithIssuer(iss string) Option {
	return func(i *Issuer) { i.issuer = iss }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

func NewIssuer(secret string, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	i := &Issuer{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// IssueAccess mints an access token for userID expiring after ttl.
func (i *Issuer) IssueAccess(userID string, ttl time.Duration) (string, error) {
	return i.issue(userID, KindAccess, ttl)
}

// IssueRefresh mints a refresh token for userID expiring after ttl.
func (i *Issuer) IssueRefresh(userID string, ttl time.Duration) (string, error) {
	return i.issue(userID, KindRefresh, ttl)
}

func (i *Issuer) issue(userID string, kind Kind, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("token: empty user id")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token: ttl must be positive, got %s", ttl)
	}

	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Kind: kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the user id. A token is
// expired from its exp second onwards.
func (i *Issuer) Verify(tokenString string) (string, error) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// VerifyKind is Verify plus a check that the token is of the given kind.
func (i *Issuer) VerifyKind(tokenString string, kind Kind) (string, error) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Kind != kind {
		return "", fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, kind, claims.Kind)
	}
	return claims.Subject, nil
}

// ExpiresAt returns the exp claim of a token this issuer signed.
func (i *Issuer) ExpiresAt(tokenString string) (time.Time, error) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}

func (i *Issuer) parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, i.keyFunc, opts...)
	if err != nil {
		return nil, classify(err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

func (i *Issuer) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
	}
	return i.secret, nil
}

// classify maps golang-jwt validation errors onto this package's errors.
// Signature is checked before claims, so a forged expired token reports
// ErrInvalidSignature.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpiredToken, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}
