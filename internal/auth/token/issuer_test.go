package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearhere-auth/internal/auth/token"
)

const secret = "0123456789abcdef0123456789abcdef"

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newIssuer(t *testing.T, c *clock, opts ...token.Option) *token.Issuer {
	t.Helper()
	opts = append(opts, token.WithClock(c.now))
	iss, err := token.NewIssuer(secret, opts...)
	require.NoError(t, err)
	return iss
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	t.Parallel()
	_, err := token.NewIssuer("")
	require.ErrorIs(t, err, token.ErrMissingSecret)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	iss := newIssuer(t, c)

	access, err := iss.IssueAccess("user-1", 15*time.Minute)
	require.NoError(t, err)

	userID, err := iss.Verify(access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	userID, err = iss.VerifyKind(access, token.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	exp, err := iss.ExpiresAt(access)
	require.NoError(t, err)
	assert.Equal(t, c.t.Add(15*time.Minute).Unix(), exp.Unix())
}

func TestAccessAndRefreshAreDistinct(t *testing.T) {
	t.Parallel()
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	iss := newIssuer(t, c)

	access, err := iss.IssueAccess("user-1", time.Minute)
	require.NoError(t, err)
	refresh, err := iss.IssueRefresh("user-1", time.Minute)
	require.NoError(t, err)
	again, err := iss.IssueRefresh("user-1", time.Minute)
	require.NoError(t, err)

	assert.NotEqual(t, access, refresh)
	assert.NotEqual(t, refresh, again, "tokens minted in the same second must still differ")

	_, err = iss.VerifyKind(access, token.KindRefresh)
	require.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = iss.VerifyKind(refresh, token.KindAccess)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestExpiryBoundaryIsInclusive(t *testing.T) {
	t.Parallel()
	issuedAt := time.Unix(1_700_000_000, 0)
	c := &clock{t: issuedAt}
	iss := newIssuer(t, c)

	tok, err := iss.IssueRefresh("user-1", 60*time.Second)
	require.NoError(t, err)

	c.t = issuedAt.Add(59 * time.Second)
	_, err = iss.Verify(tok)
	require.NoError(t, err)

	c.t = issuedAt.Add(60 * time.Second)
	_, err = iss.Verify(tok)
	require.ErrorIs(t, err, token.ErrExpiredToken)

	c.t = issuedAt.Add(61 * time.Second)
	_, err = iss.Verify(tok)
	require.ErrorIs(t, err, token.ErrExpiredToken)
}

func TestVerifyFailureModes(t *testing.T) {
	t.Parallel()
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	iss := newIssuer(t, c)

	valid, err := iss.IssueAccess("user-1", time.Minute)
	require.NoError(t, err)

	other, err := token.NewIssuer("fedcba9876543210fedcba9876543210", token.WithClock(c.now))
	require.NoError(t, err)
	forged, err := other.IssueAccess("user-1", time.Minute)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1",
		"exp": c.t.Add(time.Minute).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", token.ErrMalformedToken},
		{"garbage", "not-a-jwt", token.ErrMalformedToken},
		{"other secret", forged, token.ErrInvalidSignature},
		{"tampered signature", tampered, token.ErrInvalidSignature},
		{"alg none", none, token.ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.Verify(tt.token)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIssuerClaim(t *testing.T) {
	t.Parallel()
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	hearhere := newIssuer(t, c, token.WithIssuer("hearhere"))
	plain := newIssuer(t, c)

	tok, err := plain.IssueAccess("user-1", time.Minute)
	require.NoError(t, err)

	_, err = hearhere.Verify(tok)
	require.ErrorIs(t, err, token.ErrInvalidToken)

	tok, err = hearhere.IssueAccess("user-1", time.Minute)
	require.NoError(t, err)
	userID, err := hearhere.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestIssueRejectsBadInput(t *testing.T) {
	t.Parallel()
	iss := newIssuer(t, &clock{t: time.Unix(1_700_000_000, 0)})

	_, err := iss.IssueAccess("", time.Minute)
	require.Error(t, err)

	_, err = iss.IssueRefresh("user-1", 0)
	require.Error(t, err)
}
