package auth

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNoCertificate is returned when a client certificate is needed but none is configured.
	ErrNoCertificate = errors.New("no client certificate configured")
	errBadCAData     = errors.New("failed to parse CA certificates from PEM data")
)

// LoadTLSConfig builds the client TLS configuration. It returns nil when TLS is disabled.
func LoadTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil //nolint:nilnil
	}

	caPool, err := LoadCAPool(cfg)
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		RootCAs:            caPool,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for test deployments
		MinVersion:         tls.VersionTLS12,
	}

	if cfg.CertFile != "" || cfg.KeyFile != "" {
		pair, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client key pair: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{pair}
	}

	return tlsConfig, nil
}

// LoadCAPool loads CA certificates from the system pool, a PEM file and inline PEM data.
// A nil pool means "use the system roots".
func LoadCAPool(cfg TLSConfig) (*x509.CertPool, error) {
	if !cfg.UseSystemCA && cfg.CAFile == "" && cfg.CAData == "" {
		return nil, nil //nolint:nilnil
	}

	caPool := x509.NewCertPool()
	if cfg.UseSystemCA {
		systemPool, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("failed to load system CA pool: %w", err)
		}
		caPool = systemPool
	}

	if cfg.CAFile != "" {
		data, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("reading CA file: %w", err)
		}
		if !caPool.AppendCertsFromPEM(data) {
			return nil, errBadCAData
		}
	}

	if cfg.CAData != "" {
		if !caPool.AppendCertsFromPEM([]byte(cfg.CAData)) {
			return nil, errBadCAData
		}
	}

	return caPool, nil
}

// ClientCertificate returns the parsed leaf of the first configured client certificate.
func ClientCertificate(tlsConfig *tls.Config) (*x509.Certificate, error) {
	if tlsConfig == nil || len(tlsConfig.Certificates) == 0 {
		return nil, ErrNoCertificate
	}
	pair := tlsConfig.Certificates[0]
	if pair.Leaf != nil {
		return pair.Leaf, nil
	}
	if len(pair.Certificate) == 0 {
		return nil, ErrNoCertificate
	}
	return x509.ParseCertificate(pair.Certificate[0])
}

// CertificateSubject returns the RFC 2253 subject the server maps to an X.509 user.
func CertificateSubject(cert *x509.Certificate) string {
	return cert.Subject.ToRDNSequence().String()
}

// GetCertificateFingerprint returns the SHA256 fingerprint of the certificate.
func GetCertificateFingerprint(cert *x509.Certificate) string {
	hash := sha256.Sum256(cert.Raw)
	return fmt.Sprintf("%x", hash)
}
