package auth

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Config holds the process-wide connection defaults.
type Config struct {
	// Host is used when the caller does not name one.
	Host string
	// Port is used when the caller passes zero.
	Port int
	// AutoReconnect is handed to the Dialer.
	AutoReconnect bool
	// Database is the default database to authenticate against.
	Database string
	// Username is the default user.
	Username string
	// Mechanism selects the Authenticator.
	Mechanism Mechanism
	// ConnectTimeout bounds dialing.
	ConnectTimeout time.Duration
	TLS            TLSConfig
	Authorization  AuthorizationConfig
	Metrics        MetricsConfig
}

// TLSConfig configures the transport for X.509 and TLS deployments.
type TLSConfig struct {
	Enabled            bool
	UseSystemCA        bool
	CAFile             string
	CAData             string
	CertFile           string
	KeyFile            string
	InsecureSkipVerify bool
}

// AuthorizationConfig points at the casbin model and policy guarding admin operations.
type AuthorizationConfig struct {
	ModelPath  string
	PolicyPath string
}

// MetricsConfig controls the Prometheus endpoint of the CLI.
type MetricsConfig struct {
	Enabled  bool
	Address  string
	Endpoint string
}

// DefaultConfig returns the defaults, honouring MONGO_* environment variables.
func DefaultConfig() *Config {
	return &Config{
		Host:           GetEnv("MONGO_HOST", DefaultHost),
		Port:           cast.ToInt(GetEnv("MONGO_PORT", strconv.Itoa(DefaultPort))),
		AutoReconnect:  cast.ToBool(GetEnv("MONGO_AUTO_RECONNECT", "true")),
		Database:       GetEnv("MONGO_DATABASE", AdminDatabase),
		Username:       GetEnv("MONGO_USER", ""),
		Mechanism:      Mechanism(GetEnv("MONGO_AUTH_MECHANISM", string(MechanismNonce))),
		ConnectTimeout: 10 * time.Second,
		Metrics: MetricsConfig{
			Address:  "127.0.0.1:9091",
			Endpoint: "/metrics",
		},
	}
}

// ParseConfig overlays the values found in cfg on top of DefaultConfig.
func ParseConfig(cfg map[string]interface{}) *Config {
	c := DefaultConfig()

	if v, ok := cfg["host"]; ok {
		c.Host = cast.ToString(v)
	}
	if v, ok := cfg["port"]; ok {
		c.Port = cast.ToInt(v)
	}
	if v, ok := cfg["autoReconnect"]; ok {
		c.AutoReconnect = cast.ToBool(v)
	}
	if v, ok := cfg["database"]; ok {
		c.Database = cast.ToString(v)
	}
	if v, ok := cfg["username"]; ok {
		c.Username = cast.ToString(v)
	}
	if v, ok := cfg["mechanism"]; ok {
		c.Mechanism = Mechanism(cast.ToString(v))
	}
	if v, ok := cfg["connectTimeout"]; ok {
		c.ConnectTimeout = cast.ToDuration(v)
	}

	if tlsCfg := cast.ToStringMap(cfg["tls"]); len(tlsCfg) > 0 {
		c.TLS = TLSConfig{
			Enabled:            cast.ToBool(tlsCfg["enabled"]),
			UseSystemCA:        cast.ToBool(tlsCfg["useSystemCA"]),
			CAFile:             cast.ToString(tlsCfg["caFile"]),
			CAData:             cast.ToString(tlsCfg["caData"]),
			CertFile:           cast.ToString(tlsCfg["certFile"]),
			KeyFile:            cast.ToString(tlsCfg["keyFile"]),
			InsecureSkipVerify: cast.ToBool(tlsCfg["insecureSkipVerify"]),
		}
	}

	if authz := cast.ToStringMap(cfg["authorization"]); len(authz) > 0 {
		c.Authorization.ModelPath = cast.ToString(authz["modelPath"])
		c.Authorization.PolicyPath = cast.ToString(authz["policyPath"])
	}

	if m := cast.ToStringMap(cfg["metrics"]); len(m) > 0 {
		if v, ok := m["enabled"]; ok {
			c.Metrics.Enabled = cast.ToBool(v)
		}
		if v, ok := m["address"]; ok {
			c.Metrics.Address = cast.ToString(v)
		}
		if v, ok := m["endpoint"]; ok {
			c.Metrics.Endpoint = cast.ToString(v)
		}
	}

	return c
}

// LoadConfigFile reads a YAML configuration file and parses it with ParseConfig.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return ParseConfig(raw), nil
}

// Address resolves host and port against the configured defaults.
func (c *Config) Address(host string, port int) string {
	if host == "" {
		host = c.Host
	}
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = c.Port
	}
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// GetEnv returns the value of the environment variable, or fallback when unset.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
