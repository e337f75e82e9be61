package auth

import (
	"crypto/md5" //nolint:gosec // MD5 is required by the MONGODB-CR protocol
	"encoding/hex"
)

// Digester computes the two hashes used by the nonce handshake.
// MD5Digester is the wire-compatible default; a deployment that controls both
// ends can plug in a stronger implementation.
type Digester interface {
	// CredentialDigest derives the persistable credential hash from a plaintext secret.
	CredentialDigest(username, secret string) string
	// SessionDigest derives the proof submitted as "key" for a single nonce.
	SessionDigest(nonce, username, credentialDigest string) string
}

// MD5Digester implements the legacy MONGODB-CR hashes.
// MD5 is cryptographically broken and the comparison on the server is not
// constant time. Use it only where a server requires MONGODB-CR.
type MD5Digester struct{}

// CredentialDigest returns md5("<username>:mongo:<secret>") in hex.
func (MD5Digester) CredentialDigest(username, secret string) string {
	return md5Hex(username + ":mongo:" + secret)
}

// SessionDigest returns md5(nonce + username + credentialDigest) in hex.
func (MD5Digester) SessionDigest(nonce, username, credentialDigest string) string {
	return md5Hex(nonce + username + credentialDigest)
}

// CredentialDigest computes the MONGODB-CR credential digest for a user.
// The result can be stored (for example in a cookie) and later passed to a
// handshake with Plaintext set to false, so the secret itself is never kept.
func CredentialDigest(username, secret string) string {
	return MD5Digester{}.CredentialDigest(username, secret)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// IsCredentialDigest reports whether s looks like a hex encoded credential digest.
func IsCredentialDigest(s string) bool {
	if len(s) != CredentialDigestLength {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
