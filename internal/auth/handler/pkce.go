package handler

import "golang.org/x/oauth2"

// generatePKCE returns an RFC 7636 verifier and its S256 challenge.
func generatePKCE() (verifier string, challenge string) {
	verifier = oauth2.GenerateVerifier()
	return verifier, oauth2.S256ChallengeFromVerifier(verifier)
}
