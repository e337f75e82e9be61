package auth

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"go.mongodb.org/mongo-driver/bson"
)

// NonceAuthenticator implements the MONGODB-CR challenge-response handshake:
// fetch a fresh nonce, then submit md5(nonce + user + credentialDigest).
// A nonce is never reused; every call to Authenticate asks the server for a new one.
type NonceAuthenticator struct {
	Digester Digester
	Logger   hclog.Logger
}

// Name returns the mechanism name.
func (a *NonceAuthenticator) Name() Mechanism {
	return MechanismNonce
}

// Authenticate runs getnonce followed by authenticate on database.
// It does not retry; a failed nonce fetch ends the attempt without sending
// the authenticate command.
func (a *NonceAuthenticator) Authenticate(
	ctx context.Context, ch CommandChannel, database string, cred Credential,
) Result {
	logger := a.logger().With("database", database, "user", cred.Username)
	digester := a.digester()

	credentialDigest := cred.Secret
	if cred.Plaintext {
		credentialDigest = digester.CredentialDigest(cred.Username, cred.Secret)
	}

	nonce, err := a.fetchNonce(ctx, ch, database)
	if err != nil {
		logger.Debug("Nonce fetch failed", "error", err)
		return Failed()
	}

	cmd := bson.D{
		{Key: CmdAuthenticate, Value: 1},
		{Key: FieldUser, Value: cred.Username},
		{Key: FieldNonce, Value: nonce},
		{Key: FieldKey, Value: digester.SessionDigest(nonce, cred.Username, credentialDigest)},
	}
	resp, err := ch.RunCommand(ctx, database, cmd)
	if err != nil {
		logger.Debug("Authenticate command failed", "error", err)
		return Failed()
	}
	if !resp.OK() {
		logger.Debug("Authenticate rejected", "errmsg", resp.Errmsg(), "code", resp.Int(FieldCode))
		return Failed()
	}

	return Succeeded()
}

// fetchNonce asks the server for a single-use nonce.
func (a *NonceAuthenticator) fetchNonce(ctx context.Context, ch CommandChannel, database string) (string, error) {
	resp, err := ch.RunCommand(ctx, database, bson.D{{Key: CmdGetNonce, Value: 1}})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", commandError(CmdGetNonce, resp)
	}
	nonce := resp.String(FieldNonce)
	if nonce == "" {
		return "", ErrNoNonce
	}
	return nonce, nil
}

func (a *NonceAuthenticator) digester() Digester {
	if a.Digester == nil {
		return MD5Digester{}
	}
	return a.Digester
}

func (a *NonceAuthenticator) logger() hclog.Logger {
	if a.Logger == nil {
		return hclog.NewNullLogger()
	}
	return a.Logger
}
