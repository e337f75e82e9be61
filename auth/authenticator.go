package auth

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
)

var (
	// ErrNoNonce is logged when the server's getnonce reply carries no nonce.
	ErrNoNonce = errors.New("server returned no nonce")
	// ErrDigestCredential is logged when a mechanism needs the plaintext secret
	// but was handed a precomputed credential digest.
	ErrDigestCredential = errors.New("mechanism requires a plaintext secret")
	// ErrMissingDatabase is reported when a session is requested without a database.
	ErrMissingDatabase = errors.New("database is required")
	// ErrMissingUsername is reported when a session is requested without a username.
	ErrMissingUsername = errors.New("username is required")
)

// Credential is what a client proves knowledge of during a handshake.
type Credential struct {
	Username string
	// Secret holds either the plaintext password or a credential digest
	// computed by CredentialDigest, depending on Plaintext.
	Secret    string
	Plaintext bool
}

// Result is the outcome of a handshake. Failure is an ordinary value.
type Result struct {
	OK   bool
	Err  string
	Code int
}

// Succeeded returns a successful Result.
func Succeeded() Result {
	return Result{OK: true}
}

// Failed returns the failure Result every mechanism reports. The reason the
// handshake failed is deliberately not part of it.
func Failed() Result {
	return Result{Err: ErrorMsgLoginFailed, Code: ErrorCodeLoginFailed}
}

// Authenticator is the interface for handshake mechanism implementations.
type Authenticator interface {
	// Name returns the mechanism name (e.g., "MONGODB-CR", "SCRAM-SHA-1").
	Name() Mechanism

	// Authenticate runs the full handshake for cred against database over ch.
	// It never returns an error: every failure is a failed Result.
	Authenticate(ctx context.Context, ch CommandChannel, database string, cred Credential) Result
}

// NewAuthenticator returns the Authenticator for mechanism. X.509 takes its
// subject from the first client certificate in tlsConfig.
func NewAuthenticator(mechanism Mechanism, tlsConfig *tls.Config, logger hclog.Logger) (Authenticator, error) {
	switch mechanism {
	case "", MechanismNonce:
		return &NonceAuthenticator{Logger: logger}, nil
	case MechanismScramSHA1, MechanismScramSHA256:
		return &ScramAuthenticator{Mechanism: mechanism, Logger: logger}, nil
	case MechanismX509:
		cert, err := ClientCertificate(tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mechanism, err)
		}
		return &X509Authenticator{Certificate: cert, Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unsupported authentication mechanism %q", mechanism)
	}
}
