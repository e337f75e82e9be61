package auth

import (
	"context"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson"
)

// CommandChannel sends database commands to a server over one connection.
// A command that the server rejects is reported through Response.OK, not
// through the returned error; the error is reserved for transport failures.
type CommandChannel interface {
	// RunCommand runs cmd against database and returns the decoded reply.
	RunCommand(ctx context.Context, database string, cmd bson.D) (Response, error)
	// Address identifies the server the channel is connected to.
	Address() string
	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Dialer opens CommandChannels.
type Dialer interface {
	Dial(ctx context.Context, address string, autoReconnect bool) (CommandChannel, error)
}

// Response is a decoded command reply. Nested documents are map[string]interface{},
// arrays are []interface{} and binary payloads are []byte.
type Response map[string]interface{}

// OK reports whether the reply's "ok" field is truthy. A missing field, zero,
// false or anything unparsable counts as failure.
func (r Response) OK() bool {
	v, ok := r[FieldOK]
	if !ok || v == nil {
		return false
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return f != 0
	}
	b, err := cast.ToBoolE(v)
	return err == nil && b
}

// String returns the field as a string, or "" when absent.
func (r Response) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

// Int returns the field as an int, or 0 when absent or not numeric.
func (r Response) Int(key string) int {
	return cast.ToInt(r[key])
}

// Bool returns the field as a bool.
func (r Response) Bool(key string) bool {
	return cast.ToBool(r[key])
}

// Bytes returns a binary or string field as bytes.
func (r Response) Bytes(key string) []byte {
	switch v := r[key].(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return nil
	}
}

// Errmsg returns the server supplied error message, if any.
func (r Response) Errmsg() string {
	return r.String(FieldErrmsg)
}
