package auth

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrChannelBroken is returned by a channel without auto-reconnect after its
// connection has failed once.
var ErrChannelBroken = errors.New("connection lost and auto-reconnect is disabled")

// MongoDialer opens MongoChannels with the official driver.
type MongoDialer struct {
	TLSConfig      *tls.Config
	ConnectTimeout time.Duration
	Logger         hclog.Logger
}

// NewMongoDialer builds a dialer from the configuration.
func NewMongoDialer(cfg *Config, logger hclog.Logger) (*MongoDialer, error) {
	tlsConfig, err := LoadTLSConfig(cfg.TLS)
	if err != nil {
		return nil, err
	}
	return &MongoDialer{
		TLSConfig:      tlsConfig,
		ConnectTimeout: cfg.ConnectTimeout,
		Logger:         logger,
	}, nil
}

// Dial connects to a single server. The driver pool is pinned to one
// connection so that authentication state, which the server keeps per
// connection, follows the channel.
func (d *MongoDialer) Dial(ctx context.Context, address string, autoReconnect bool) (CommandChannel, error) {
	logger := d.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	opts := options.Client().
		SetHosts([]string{address}).
		SetDirect(true).
		SetMaxPoolSize(1).
		SetAppName("mongoauth")
	if d.ConnectTimeout > 0 {
		opts.SetConnectTimeout(d.ConnectTimeout).SetServerSelectionTimeout(d.ConnectTimeout)
	}
	if d.TLSConfig != nil {
		opts.SetTLSConfig(d.TLSConfig)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("reaching %s: %w", address, err)
	}

	logger.Debug("Connected", "address", address, "autoReconnect", autoReconnect)
	return &MongoChannel{
		client:        client,
		address:       address,
		autoReconnect: autoReconnect,
		logger:        logger.Named("channel"),
	}, nil
}

// MongoChannel is a CommandChannel backed by a mongo.Client.
type MongoChannel struct {
	client        *mongo.Client
	address       string
	autoReconnect bool
	logger        hclog.Logger

	mu     sync.Mutex
	broken bool
}

// RunCommand runs cmd on database. Server side command errors come back as a
// Response with ok 0 so that callers see them the same way as any other reply.
func (c *MongoChannel) RunCommand(ctx context.Context, database string, cmd bson.D) (Response, error) {
	c.mu.Lock()
	broken := c.broken
	c.mu.Unlock()
	if broken {
		return nil, ErrChannelBroken
	}

	var raw bson.M
	err := c.client.Database(database).RunCommand(ctx, cmd).Decode(&raw)

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return Response{
			FieldOK:     0,
			FieldErrmsg: cmdErr.Message,
			FieldCode:   int(cmdErr.Code),
		}, nil
	}
	if err != nil {
		if mongo.IsNetworkError(err) && !c.autoReconnect {
			c.mu.Lock()
			c.broken = true
			c.mu.Unlock()
		}
		c.logger.Trace("Command failed", "database", database, "command", commandName(cmd), "error", err)
		return nil, fmt.Errorf("running %s: %w", commandName(cmd), err)
	}

	resp, _ := normalize(raw).(map[string]interface{})
	return Response(resp), nil
}

// Address returns the host:port the channel is connected to.
func (c *MongoChannel) Address() string {
	return c.address
}

// Close disconnects the client.
func (c *MongoChannel) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

func commandName(cmd bson.D) string {
	if len(cmd) == 0 {
		return ""
	}
	return cmd[0].Key
}

// normalize converts driver types into plain Go values.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case bson.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case primitive.Binary:
		return t.Data
	default:
		return v
	}
}
