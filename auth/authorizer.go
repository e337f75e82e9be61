package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/hashicorp/go-hclog"
)

// Authorizer is a client-side casbin policy consulted before privileged
// commands are sent. Requests are (user, database, command).
type Authorizer struct {
	enforcer *casbin.Enforcer
	logger   hclog.Logger
}

// NewAuthorizer creates an Authorizer from casbin model and policy files.
// Returns nil if either path is empty (authorization disabled).
func NewAuthorizer(modelPath, policyPath string, logger hclog.Logger) (*Authorizer, error) {
	if modelPath == "" || policyPath == "" {
		return nil, nil //nolint:nilnil
	}

	enforcer, err := casbin.NewEnforcer(modelPath, policyPath)
	if err != nil {
		return nil, fmt.Errorf("creating casbin enforcer: %w", err)
	}

	return NewAuthorizerWithEnforcer(enforcer, logger), nil
}

// NewAuthorizerWithEnforcer wraps an existing enforcer.
func NewAuthorizerWithEnforcer(enforcer *casbin.Enforcer, logger hclog.Logger) *Authorizer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Authorizer{enforcer: enforcer, logger: logger}
}

// Authorize reports whether username may run command on database.
// A nil Authorizer allows everything.
func (a *Authorizer) Authorize(username, database, command string) (bool, error) {
	if a == nil || a.enforcer == nil {
		return true, nil
	}

	allowed, err := a.enforcer.Enforce(username, database, command)
	if err != nil {
		return false, fmt.Errorf("casbin enforce error: %w", err)
	}
	if !allowed {
		a.logger.Debug("Authorization denied",
			"user", username,
			"database", database,
			"command", command)
	}
	return allowed, nil
}

// ReloadPolicy reloads the casbin policy from the backing store.
func (a *Authorizer) ReloadPolicy() error {
	if a == nil || a.enforcer == nil {
		return nil
	}
	return a.enforcer.LoadPolicy()
}
