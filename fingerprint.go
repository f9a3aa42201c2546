package quaytags

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// AnonymousCredential is the credential identity used for clients that
// were constructed without a bearer token. Cache entries for public
// access share this identity across client instances.
const AnonymousCredential = "public"

// fingerprintLen is the number of digest bytes kept in a credential
// fingerprint. 16 bytes of BLAKE3 output is plenty to keep cache entries
// for different tokens apart without ever storing the token itself.
const fingerprintLen = 16

// CredentialID derives the cache-key identity for a bearer token.
// Anonymous access maps to AnonymousCredential; any token maps to a hex
// BLAKE3 fingerprint, so the plaintext token never appears in cache keys
// or logs.
func CredentialID(token string) string {
	if token == "" {
		return AnonymousCredential
	}
	sum := blake3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:fingerprintLen])
}
