package auth

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthenticator(t *testing.T) {
	for _, mechanism := range []Mechanism{"", MechanismNonce, MechanismScramSHA1, MechanismScramSHA256} {
		auth, err := NewAuthenticator(mechanism, nil, nil)
		require.NoError(t, err)
		if mechanism == "" {
			assert.Equal(t, MechanismNonce, auth.Name())
		} else {
			assert.Equal(t, mechanism, auth.Name())
		}
	}

	_, err := NewAuthenticator("PLAIN", nil, nil)
	assert.Error(t, err)
}

func TestNewAuthenticator_X509(t *testing.T) {
	_, err := NewAuthenticator(MechanismX509, nil, nil)
	assert.ErrorIs(t, err, ErrNoCertificate)

	certPath, keyPath, _ := writeTestKeyPair(t, t.TempDir())
	pair, err := tls.LoadX509KeyPair(certPath, keyPath)
	require.NoError(t, err)

	auth, err := NewAuthenticator(MechanismX509, &tls.Config{Certificates: []tls.Certificate{pair}}, nil)
	require.NoError(t, err)
	x509Auth, ok := auth.(*X509Authenticator)
	require.True(t, ok)
	assert.Equal(t, "client", x509Auth.Certificate.Subject.CommonName)
}

func TestResultConstructors(t *testing.T) {
	assert.Equal(t, Result{OK: true}, Succeeded())
	assert.Equal(t, Result{Err: "couldn't log in", Code: -3}, Failed())
}
