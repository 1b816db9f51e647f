package provider

import (
	"context"
)

// OAuthProvider defines the contract every external auth provider
// must implement. Implementations return the provider's raw attribute bag;
// normalizing it into a principal and deciding on users and tokens happens
// downstream.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "google", "kakao").
	Name() string

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode exchanges the authorization code and returns the
	// attributes the provider asserted about the user.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (map[string]any, error)
}
