package auth

import (
	"context"
	"crypto/x509"
	"crypto/x509/pkix"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestX509Authenticator_UsesCertificateSubject(t *testing.T) {
	ctx := context.Background()
	cert := &x509.Certificate{Subject: pkix.Name{CommonName: "client", Organization: []string{"example"}}}

	ch := &mockChannel{}
	ch.On("RunCommand", ctx, "$external", bson.D{
		{Key: "authenticate", Value: 1},
		{Key: "mechanism", Value: "MONGODB-X509"},
		{Key: "user", Value: "CN=client,O=example"},
	}).Return(Response{"ok": 1}, nil).Once()

	auth := &X509Authenticator{Certificate: cert}
	result := auth.Authenticate(ctx, ch, "admin", Credential{})

	assert.True(t, result.OK)
	assert.Equal(t, MechanismX509, auth.Name())
	ch.AssertExpectations(t)
}

func TestX509Authenticator_ExplicitUserWithoutCertificate(t *testing.T) {
	ctx := context.Background()
	ch := &mockChannel{}
	ch.On("RunCommand", ctx, "$external", bson.D{
		{Key: "authenticate", Value: 1},
		{Key: "mechanism", Value: "MONGODB-X509"},
		{Key: "user", Value: "CN=svc"},
	}).Return(Response{"ok": 0, "errmsg": "no SSL certificate provided"}, nil).Once()

	result := (&X509Authenticator{}).Authenticate(ctx, ch, "admin", Credential{Username: "CN=svc"})

	assert.Equal(t, Failed(), result)
	ch.AssertExpectations(t)
}
