package principal

import (
	"errors"
	"fmt"

	"hearhere-auth/internal/auth"
)

var (
	ErrUnsupportedProvider = errors.New("principal: unsupported provider")
	ErrMissingAttribute    = errors.New("principal: missing attribute")
)

// Extractor pulls the provider-scoped id and display name out of the
// attribute bag a provider returned.
type Extractor func(attrs map[string]any) (providerID, name string, err error)

// Resolver maps provider attribute bags to a normalized auth.Principal.
// It performs no I/O.
type Resolver struct {
	extractors map[string]Extractor
}

// NewResolver returns a resolver with the google, kakao and naver
// extractors registered.
func NewResolver() *Resolver {
	r := &Resolver{extractors: make(map[string]Extractor)}
	r.Register(ProviderGoogle, extractGoogle)
	r.Register(ProviderKakao, extractKakao)
	r.Register(ProviderNaver, extractNaver)
	return r
}

// Register adds or replaces the extractor for a provider.
func (r *Resolver) Register(provider string, fn Extractor) {
	r.extractors[provider] = fn
}

// Supports reports whether an extractor exists for provider.
func (r *Resolver) Supports(provider string) bool {
	_, ok := r.extractors[provider]
	return ok
}

// Resolve normalizes attrs for the named provider. Both the id and the name
// must be non-empty.
func (r *Resolver) Resolve(provider string, attrs map[string]any) (auth.Principal, error) {
	extract, ok := r.extractors[provider]
	if !ok {
		return auth.Principal{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}

	providerID, name, err := extract(attrs)
	if err != nil {
		return auth.Principal{}, fmt.Errorf("%s: %w", provider, err)
	}
	if providerID == "" {
		return auth.Principal{}, fmt.Errorf("%s: %w: id", provider, ErrMissingAttribute)
	}
	if name == "" {
		return auth.Principal{}, fmt.Errorf("%s: %w: name", provider, ErrMissingAttribute)
	}

	return auth.Principal{
		Provider:   provider,
		ProviderID: providerID,
		Name:       name,
	}, nil
}
