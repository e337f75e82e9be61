package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/xdg-go/scram"
	"go.mongodb.org/mongo-driver/bson"
)

// maxSaslRounds bounds the saslContinue exchange; SCRAM needs at most three.
const maxSaslRounds = 5

var errSaslNotDone = errors.New("server did not complete the SASL conversation")

// ScramAuthenticator implements SCRAM-SHA-1 and SCRAM-SHA-256 (RFC 5802) over
// saslStart/saslContinue. It is the stronger alternative to NonceAuthenticator.
//
// SCRAM-SHA-1 uses the MONGODB-CR credential digest as its password, so a
// stored digest works with it. SCRAM-SHA-256 needs the plaintext secret.
type ScramAuthenticator struct {
	Mechanism Mechanism
	Digester  Digester
	Logger    hclog.Logger
}

// Name returns the mechanism name.
func (a *ScramAuthenticator) Name() Mechanism {
	if a.Mechanism == "" {
		return MechanismScramSHA256
	}
	return a.Mechanism
}

// Authenticate runs the SCRAM conversation against database.
func (a *ScramAuthenticator) Authenticate(
	ctx context.Context, ch CommandChannel, database string, cred Credential,
) Result {
	logger := a.logger().With("database", database, "user", cred.Username, "mechanism", a.Name())

	client, err := a.newClient(cred)
	if err != nil {
		logger.Debug("SCRAM client creation failed", "error", err)
		return Failed()
	}

	if err := a.converse(ctx, ch, database, client.NewConversation()); err != nil {
		logger.Debug("SCRAM handshake failed", "error", err)
		return Failed()
	}
	return Succeeded()
}

// newClient builds a SCRAM client from the credential.
func (a *ScramAuthenticator) newClient(cred Credential) (*scram.Client, error) {
	switch a.Name() {
	case MechanismScramSHA1:
		digest := cred.Secret
		if cred.Plaintext {
			digest = a.digester().CredentialDigest(cred.Username, cred.Secret)
		}
		// The hex digest is already normalized; SASLprep must not touch it.
		return scram.SHA1.NewClientUnprepped(cred.Username, digest, "")
	case MechanismScramSHA256:
		if !cred.Plaintext {
			return nil, ErrDigestCredential
		}
		return scram.SHA256.NewClient(cred.Username, cred.Secret, "")
	default:
		return nil, fmt.Errorf("unsupported SCRAM mechanism %q", a.Name())
	}
}

// converse drives saslStart and the following saslContinue rounds until both
// the server reports done and the server signature has been verified.
func (a *ScramAuthenticator) converse(
	ctx context.Context, ch CommandChannel, database string, conv *scram.ClientConversation,
) error {
	clientFirst, err := conv.Step("")
	if err != nil {
		return fmt.Errorf("building client-first message: %w", err)
	}

	resp, err := ch.RunCommand(ctx, database, bson.D{
		{Key: CmdSaslStart, Value: 1},
		{Key: FieldMechanism, Value: string(a.Name())},
		{Key: FieldPayload, Value: []byte(clientFirst)},
		{Key: "autoAuthorize", Value: 1},
	})
	if err != nil {
		return fmt.Errorf("saslStart: %w", err)
	}

	command := CmdSaslStart
	for round := 0; round < maxSaslRounds; round++ {
		if !resp.OK() {
			return commandError(command, resp)
		}

		var out string
		if !conv.Done() {
			out, err = conv.Step(string(resp.Bytes(FieldPayload)))
			if err != nil {
				return fmt.Errorf("processing server message: %w", err)
			}
		}

		if resp.Bool(FieldDone) {
			if conv.Done() && conv.Valid() {
				return nil
			}
			return errSaslNotDone
		}

		command = CmdSaslContinue
		resp, err = ch.RunCommand(ctx, database, bson.D{
			{Key: CmdSaslContinue, Value: 1},
			{Key: FieldConversationID, Value: resp[FieldConversationID]},
			{Key: FieldPayload, Value: []byte(out)},
		})
		if err != nil {
			return fmt.Errorf("saslContinue: %w", err)
		}
	}

	return errSaslNotDone
}

func (a *ScramAuthenticator) digester() Digester {
	if a.Digester == nil {
		return MD5Digester{}
	}
	return a.Digester
}

func (a *ScramAuthenticator) logger() hclog.Logger {
	if a.Logger == nil {
		return hclog.NewNullLogger()
	}
	return a.Logger
}
