package auth

import (
	"context"
	"crypto/x509"

	"github.com/hashicorp/go-hclog"
	"go.mongodb.org/mongo-driver/bson"
)

// ExternalDatabase is where users authenticated outside the server live.
const ExternalDatabase = "$external"

// X509Authenticator authenticates with the TLS client certificate presented
// on the connection. No secret travels in the command.
type X509Authenticator struct {
	Certificate *x509.Certificate
	Logger      hclog.Logger
}

// Name returns the mechanism name.
func (a *X509Authenticator) Name() Mechanism {
	return MechanismX509
}

// Authenticate sends the MONGODB-X509 authenticate command. The user defaults to
// the certificate subject when the credential does not name one. The command
// always runs on $external, whatever database the session is scoped to.
func (a *X509Authenticator) Authenticate(
	ctx context.Context, ch CommandChannel, database string, cred Credential,
) Result {
	logger := a.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	user := cred.Username
	if user == "" && a.Certificate != nil {
		user = CertificateSubject(a.Certificate)
		logger.Debug("Using certificate subject as user",
			"subject", user,
			"fingerprint", GetCertificateFingerprint(a.Certificate))
	}

	cmd := bson.D{
		{Key: CmdAuthenticate, Value: 1},
		{Key: FieldMechanism, Value: string(MechanismX509)},
	}
	if user != "" {
		cmd = append(cmd, bson.E{Key: FieldUser, Value: user})
	}

	resp, err := ch.RunCommand(ctx, ExternalDatabase, cmd)
	if err != nil {
		logger.Debug("X.509 authenticate failed", "database", database, "error", err)
		return Failed()
	}
	if !resp.OK() {
		logger.Debug("X.509 authenticate rejected", "database", database, "errmsg", resp.Errmsg())
		return Failed()
	}
	return Succeeded()
}
