package auth

// Principal is the normalized identity asserted by an OAuth provider for
// one login attempt. It carries facts only; deciding which internal user it
// maps to happens later.
type Principal struct {
	Provider   string // e.g. "google", "kakao", "naver"
	ProviderID string // provider-scoped subject identifier
	Name       string // display name as reported at login time
}
