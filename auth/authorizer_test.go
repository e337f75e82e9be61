package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthorizer_Disabled(t *testing.T) {
	authorizer, err := NewAuthorizer("", "", nil)
	require.NoError(t, err)
	assert.Nil(t, authorizer)

	allowed, err := authorizer.Authorize("anyone", "admin", "shutdown")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.NoError(t, authorizer.ReloadPolicy())
}

func TestNewAuthorizer_MissingFiles(t *testing.T) {
	_, err := NewAuthorizer("/nonexistent/model.conf", "/nonexistent/policy.csv", nil)
	assert.Error(t, err)
}

func TestAuthorizer_Authorize(t *testing.T) {
	modelPath, policyPath := writeTestPolicy(t, `p, alice, admin, *
p, bob, admin, listDatabases
p, bob, admin, traceAll
`)
	authorizer, err := NewAuthorizer(modelPath, policyPath, nil)
	require.NoError(t, err)

	tests := []struct {
		user, database, command string
		want                    bool
	}{
		{"alice", "admin", "shutdown", true},
		{"alice", "admin", "opLogging", true},
		{"alice", "test", "shutdown", false},
		{"bob", "admin", "listDatabases", true},
		{"bob", "admin", "traceAll", true},
		{"bob", "admin", "shutdown", false},
		{"mallory", "admin", "listDatabases", false},
	}

	for _, tt := range tests {
		t.Run(tt.user+"/"+tt.command, func(t *testing.T) {
			allowed, err := authorizer.Authorize(tt.user, tt.database, tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.want, allowed)
		})
	}

	assert.NoError(t, authorizer.ReloadPolicy())
}
