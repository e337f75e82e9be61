package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mockChannel is a CommandChannel whose replies are scripted with testify/mock.
type mockChannel struct {
	mock.Mock
}

func (m *mockChannel) RunCommand(ctx context.Context, database string, cmd bson.D) (Response, error) {
	args := m.Called(ctx, database, cmd)
	resp, _ := args.Get(0).(Response)
	return resp, args.Error(1)
}

func (m *mockChannel) Address() string {
	return "db.example.com:27017"
}

func (m *mockChannel) Close(context.Context) error {
	return nil
}

// funcChannel answers every command with a function, for conversations that
// need state on the "server" side.
type funcChannel func(database string, cmd bson.D) (Response, error)

func (f funcChannel) RunCommand(_ context.Context, database string, cmd bson.D) (Response, error) {
	return f(database, cmd)
}

func (f funcChannel) Address() string             { return "func:27017" }
func (f funcChannel) Close(context.Context) error { return nil }

// lookup returns the value of key in cmd.
func lookup(cmd bson.D, key string) interface{} {
	for _, e := range cmd {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

func TestResponse_OK(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want bool
	}{
		{"float one", Response{"ok": 1.0}, true},
		{"int one", Response{"ok": 1}, true},
		{"int32 one", Response{"ok": int32(1)}, true},
		{"bool true", Response{"ok": true}, true},
		{"string one", Response{"ok": "1"}, true},
		{"string true", Response{"ok": "true"}, true},
		{"zero", Response{"ok": 0}, false},
		{"float zero", Response{"ok": 0.0}, false},
		{"bool false", Response{"ok": false}, false},
		{"missing", Response{"nonce": "abc"}, false},
		{"nil value", Response{"ok": nil}, false},
		{"garbage", Response{"ok": "yes please"}, false},
		{"nil response", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.resp.OK())
		})
	}
}

func TestResponse_Accessors(t *testing.T) {
	resp := Response{
		"nonce":   "2375531c32080ae8",
		"code":    int32(18),
		"done":    true,
		"payload": []byte("r=abc"),
		"errmsg":  "auth failed",
	}

	assert.Equal(t, "2375531c32080ae8", resp.String("nonce"))
	assert.Equal(t, "", resp.String("missing"))
	assert.Equal(t, 18, resp.Int("code"))
	assert.True(t, resp.Bool("done"))
	assert.Equal(t, []byte("r=abc"), resp.Bytes("payload"))
	assert.Equal(t, []byte("2375531c32080ae8"), resp.Bytes("nonce"))
	assert.Nil(t, resp.Bytes("code"))
	assert.Equal(t, "auth failed", resp.Errmsg())
}

func TestNormalize(t *testing.T) {
	raw := bson.M{
		"ok": 1.0,
		"databases": bson.A{
			bson.D{{Key: "name", Value: "admin"}, {Key: "sizeOnDisk", Value: int64(8192)}},
			bson.M{"name": "local"},
		},
		"payload": bson.M{"data": primitive.Binary{Data: []byte{0x01, 0x02}}},
	}

	got, ok := normalize(raw).(map[string]interface{})
	assert.True(t, ok)

	dbs, ok := got["databases"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, dbs, 2)
	assert.Equal(t, map[string]interface{}{"name": "admin", "sizeOnDisk": int64(8192)}, dbs[0])
	assert.Equal(t, map[string]interface{}{"name": "local"}, dbs[1])

	payload, ok := got["payload"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, []byte{0x01, 0x02}, payload["data"])
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "getnonce", commandName(bson.D{{Key: "getnonce", Value: 1}}))
	assert.Equal(t, "", commandName(nil))
}
