package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/qmuntal/stateless"
	"go.mongodb.org/mongo-driver/bson"
)

// Session is the authentication state of one connection to one database.
//
// A Session is created by running a handshake. Failure to authenticate is not
// an error: the Session is returned with Authenticated reporting false and
// Error describing the failure. The channel and database never change after
// construction.
type Session struct {
	channel   CommandChannel
	database  string
	username  string
	mechanism Mechanism
	logger    hclog.Logger

	// authorizer is consulted by AdminSession before privileged commands.
	authorizer *Authorizer

	mu              sync.RWMutex // guards everything below as one unit
	fsm             *stateless.StateMachine
	errMsg          string
	errCode         int
	authenticatedAt time.Time
	closed          bool
}

type sessionOptions struct {
	logger        hclog.Logger
	authenticator Authenticator
	authorizer    *Authorizer
}

// SessionOption customizes NewSession and Connect.
type SessionOption func(*sessionOptions)

// WithLogger sets the logger used by the session and its default authenticator.
func WithLogger(logger hclog.Logger) SessionOption {
	return func(o *sessionOptions) { o.logger = logger }
}

// WithAuthenticator replaces the default MONGODB-CR handshake.
func WithAuthenticator(authenticator Authenticator) SessionOption {
	return func(o *sessionOptions) { o.authenticator = authenticator }
}

// WithAuthorizer installs a policy that gates administrative commands.
func WithAuthorizer(authorizer *Authorizer) SessionOption {
	return func(o *sessionOptions) { o.authorizer = authorizer }
}

func buildOptions(opts []SessionOption) sessionOptions {
	o := sessionOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = hclog.NewNullLogger()
	}
	if o.authenticator == nil {
		o.authenticator = &NonceAuthenticator{Logger: o.logger}
	}
	return o
}

// Connect resolves host and port against cfg, dials the server and runs the
// handshake. Only a dial failure is returned as an error.
func Connect(
	ctx context.Context,
	cfg *Config,
	dialer Dialer,
	host string,
	port int,
	database string,
	cred Credential,
	opts ...SessionOption,
) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	address := cfg.Address(host, port)

	ch, err := dialer.Dial(ctx, address, cfg.AutoReconnect)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", address, err)
	}

	return NewSession(ctx, ch, database, cred, opts...), nil
}

// NewSession runs the handshake for cred against database over ch.
//
// Empty database and (except for X.509) empty username are rejected before any
// command is sent; the session comes back failed with code ErrorCodeLoginFailed.
func NewSession(
	ctx context.Context, ch CommandChannel, database string, cred Credential, opts ...SessionOption,
) *Session {
	o := buildOptions(opts)

	s := &Session{
		channel:    ch,
		database:   database,
		username:   cred.Username,
		mechanism:  o.authenticator.Name(),
		logger:     o.logger.Named("session").With("database", database, "user", cred.Username),
		authorizer: o.authorizer,
	}
	s.fsm = newSessionFSM(s.logger)

	if err := validateSession(database, cred, s.mechanism); err != nil {
		s.logger.Debug("Refusing handshake", "error", err)
		s.fail(Result{Err: fmt.Sprintf("%s: %s", ErrorMsgLoginFailed, err), Code: ErrorCodeLoginFailed})
		return s
	}

	s.mu.Lock()
	_ = s.fsm.Fire(triggerAuthenticate)
	s.mu.Unlock()

	result := o.authenticator.Authenticate(ctx, ch, database, cred)
	if !result.OK {
		s.logger.Info("Authentication failed", "mechanism", s.mechanism)
		s.fail(result)
		return s
	}

	s.mu.Lock()
	_ = s.fsm.Fire(triggerSucceed)
	s.authenticatedAt = time.Now()
	s.mu.Unlock()

	Handshakes.WithLabelValues(string(s.mechanism), outcomeSuccess).Inc()
	ActiveSessions.Inc()
	s.logger.Info("Authentication successful", "mechanism", s.mechanism)
	return s
}

func validateSession(database string, cred Credential, mechanism Mechanism) error {
	if database == "" {
		return ErrMissingDatabase
	}
	if cred.Username == "" && mechanism != MechanismX509 {
		return ErrMissingUsername
	}
	return nil
}

func (s *Session) fail(result Result) {
	if result.Err == "" {
		result = Failed()
	}

	s.mu.Lock()
	_ = s.fsm.Fire(triggerFail)
	s.errMsg = result.Err
	s.errCode = result.Code
	s.mu.Unlock()

	Handshakes.WithLabelValues(string(s.mechanism), outcomeFailure).Inc()
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state()
}

func (s *Session) state() SessionState {
	state, ok := s.fsm.MustState().(SessionState)
	if !ok {
		return StateIdle
	}
	return state
}

const errMsgLoggedOut = "logged out"

// Authenticated reports whether the handshake succeeded and the session has
// not been logged out since.
func (s *Session) Authenticated() bool {
	return s.State() == StateAuthenticated
}

// Status returns the authenticated flag, the error message and the error
// code as one consistent snapshot.
func (s *Session) Status() (authenticated bool, errMsg string, errCode int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state() == StateAuthenticated, s.errMsg, s.errCode
}

// Error returns why the session is not authenticated, or "" when it is.
func (s *Session) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// ErrorCode returns the handshake failure code, or 0 when authenticated.
func (s *Session) ErrorCode() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errCode
}

// AuthenticatedAt returns when the handshake succeeded, or the zero time.
func (s *Session) AuthenticatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticatedAt
}

// Database returns the database the session authenticated against.
func (s *Session) Database() string {
	return s.database
}

// Username returns the user the session authenticated as.
func (s *Session) Username() string {
	return s.username
}

// Mechanism returns the mechanism used for the handshake.
func (s *Session) Mechanism() Mechanism {
	return s.mechanism
}

// Channel returns the channel the session owns.
func (s *Session) Channel() CommandChannel {
	return s.channel
}

// Describe returns the server address when authenticated, otherwise the error.
func (s *Session) Describe() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state() == StateAuthenticated {
		return s.channel.Address()
	}
	if s.errMsg != "" {
		return s.errMsg
	}
	return s.state().String()
}

func (s *Session) String() string {
	return s.Describe()
}

// Logout sends the logout command on the session's database and reports
// whether the server acknowledged it.
//
// A rejected logout leaves the session state untouched. The server side may
// still consider the user logged in; calling Logout again is not known to help.
func (s *Session) Logout(ctx context.Context) bool {
	resp, err := s.channel.RunCommand(ctx, s.database, bson.D{{Key: CmdLogout, Value: 1}})
	if err != nil {
		s.logger.Warn("Logout failed", "error", err)
		Logouts.WithLabelValues(outcomeFailure).Inc()
		return false
	}
	if !resp.OK() {
		s.logger.Warn("Logout rejected", "errmsg", resp.Errmsg())
		Logouts.WithLabelValues(outcomeRejected).Inc()
		return false
	}

	s.mu.Lock()
	if ok, _ := s.fsm.CanFire(triggerLogout); ok {
		_ = s.fsm.Fire(triggerLogout)
		s.errMsg = errMsgLoggedOut
		if !s.closed {
			ActiveSessions.Dec()
		}
	}
	s.mu.Unlock()

	Logouts.WithLabelValues(outcomeSuccess).Inc()
	s.logger.Info("Logged out")
	return true
}

// Close releases the channel. It does not log out. Calling Close twice is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.state() == StateAuthenticated {
		ActiveSessions.Dec()
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.channel.Close(ctx); err != nil {
		return fmt.Errorf("closing channel: %w", err)
	}
	return nil
}
