package auth

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/qmuntal/stateless"
)

// SessionState is the lifecycle state of a Session.
type SessionState int

const (
	StateIdle SessionState = iota
	StateAuthenticating
	StateAuthenticated
	StateFailed
	StateLoggedOut
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	case StateLoggedOut:
		return "logged-out"
	default:
		return "unknown"
	}
}

type sessionTrigger int

const (
	triggerAuthenticate sessionTrigger = iota
	triggerSucceed
	triggerFail
	triggerLogout
)

// newSessionFSM wires the allowed session transitions. Failure is terminal;
// a new handshake needs a new Session.
func newSessionFSM(logger hclog.Logger) *stateless.StateMachine {
	fsm := stateless.NewStateMachine(StateIdle)

	fsm.Configure(StateIdle).
		Permit(triggerAuthenticate, StateAuthenticating).
		Permit(triggerFail, StateFailed)
	fsm.Configure(StateAuthenticating).
		Permit(triggerSucceed, StateAuthenticated).
		Permit(triggerFail, StateFailed)
	fsm.Configure(StateAuthenticated).
		Permit(triggerLogout, StateLoggedOut)

	fsm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		logger.Trace("Session transitioned", "from", t.Source, "to", t.Destination)
	})

	return fsm
}
