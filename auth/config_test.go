package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestDefaultConfig(t *testing.T) {
	unsetEnv(t, "MONGO_HOST")
	unsetEnv(t, "MONGO_AUTH_MECHANISM")
	t.Setenv("MONGO_PORT", "27020")
	t.Setenv("MONGO_AUTO_RECONNECT", "false")

	cfg := DefaultConfig()

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, 27020, cfg.Port)
	assert.False(t, cfg.AutoReconnect)
	assert.Equal(t, MechanismNonce, cfg.Mechanism)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "/metrics", cfg.Metrics.Endpoint)
}

func TestParseConfig(t *testing.T) {
	cfg := ParseConfig(map[string]interface{}{
		"host":           "mongo.internal",
		"port":           "27018",
		"autoReconnect":  "false",
		"database":       "reports",
		"username":       "joe",
		"mechanism":      "SCRAM-SHA-1",
		"connectTimeout": "3s",
		"tls": map[string]interface{}{
			"enabled":  true,
			"caFile":   "/etc/ssl/ca.pem",
			"certFile": "/etc/ssl/client.pem",
			"keyFile":  "/etc/ssl/client.key",
		},
		"authorization": map[string]interface{}{
			"modelPath":  "model.conf",
			"policyPath": "policy.csv",
		},
		"metrics": map[string]interface{}{
			"enabled": "true",
			"address": ":9100",
		},
	})

	assert.Equal(t, "mongo.internal", cfg.Host)
	assert.Equal(t, 27018, cfg.Port)
	assert.False(t, cfg.AutoReconnect)
	assert.Equal(t, "reports", cfg.Database)
	assert.Equal(t, "joe", cfg.Username)
	assert.Equal(t, MechanismScramSHA1, cfg.Mechanism)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.True(t, cfg.TLS.Enabled)
	assert.Equal(t, "/etc/ssl/ca.pem", cfg.TLS.CAFile)
	assert.Equal(t, "/etc/ssl/client.key", cfg.TLS.KeyFile)
	assert.Equal(t, "model.conf", cfg.Authorization.ModelPath)
	assert.Equal(t, "policy.csv", cfg.Authorization.PolicyPath)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9100", cfg.Metrics.Address)
	assert.Equal(t, "/metrics", cfg.Metrics.Endpoint)
}

func TestLoadConfigFile(t *testing.T) {
	content := `host: db.example.com
port: 27017
autoReconnect: true
mechanism: MONGODB-CR
tls:
  enabled: true
  insecureSkipVerify: true
`
	path := filepath.Join(t.TempDir(), "mongoauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "db.example.com", cfg.Host)
	assert.Equal(t, 27017, cfg.Port)
	assert.True(t, cfg.AutoReconnect)
	assert.Equal(t, MechanismNonce, cfg.Mechanism)
	assert.True(t, cfg.TLS.Enabled)
	assert.True(t, cfg.TLS.InsecureSkipVerify)
}

func TestLoadConfigFile_Errors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: [unterminated"), 0o644))
	_, err = LoadConfigFile(path)
	assert.Error(t, err)
}

func TestConfig_Address(t *testing.T) {
	cfg := &Config{Host: "mongo.internal", Port: 27018}

	assert.Equal(t, "mongo.internal:27018", cfg.Address("", 0))
	assert.Equal(t, "db1:27018", cfg.Address("db1", 0))
	assert.Equal(t, "mongo.internal:1", cfg.Address("", 1))
	assert.Equal(t, "localhost:27017", (&Config{}).Address("", 0))
	assert.Equal(t, "[::1]:27017", (&Config{}).Address("::1", 0))
}

func TestGetEnv(t *testing.T) {
	t.Setenv("MONGOAUTH_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("MONGOAUTH_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("MONGOAUTH_TEST_UNSET_VALUE", "fallback"))
}
