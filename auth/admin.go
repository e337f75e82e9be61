package auth

import (
	"context"

	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson"
)

// AdminSession is a Session on the admin database with server management
// commands. Every command needs an authenticated session; on an
// unauthenticated one it returns the failure value without contacting the
// server. None of the commands retry.
type AdminSession struct {
	*Session
}

// DatabaseInfo is one entry of listDatabases.
type DatabaseInfo struct {
	Name       string
	SizeOnDisk int64
	Empty      bool
	// Fields holds the complete entry as returned by the server.
	Fields map[string]interface{}
}

// NewAdminSession runs the handshake against the admin database.
func NewAdminSession(ctx context.Context, ch CommandChannel, cred Credential, opts ...SessionOption) *AdminSession {
	return &AdminSession{Session: NewSession(ctx, ch, AdminDatabase, cred, opts...)}
}

// ConnectAdmin dials the server and runs the handshake against the admin database.
func ConnectAdmin(
	ctx context.Context, cfg *Config, dialer Dialer, host string, port int, cred Credential, opts ...SessionOption,
) (*AdminSession, error) {
	s, err := Connect(ctx, cfg, dialer, host, port, AdminDatabase, cred, opts...)
	if err != nil {
		return nil, err
	}
	return &AdminSession{Session: s}, nil
}

// ListDatabases returns the server's databases in the order the server lists them.
func (a *AdminSession) ListDatabases(ctx context.Context) ([]DatabaseInfo, bool) {
	resp, ok := a.run(ctx, CmdListDatabases, bson.D{{Key: CmdListDatabases, Value: 1}})
	if !ok {
		return nil, false
	}

	entries := cast.ToSlice(resp[FieldDatabases])
	databases := make([]DatabaseInfo, 0, len(entries))
	for _, entry := range entries {
		fields := cast.ToStringMap(entry)
		databases = append(databases, DatabaseInfo{
			Name:       cast.ToString(fields["name"]),
			SizeOnDisk: cast.ToInt64(fields["sizeOnDisk"]),
			Empty:      cast.ToBool(fields["empty"]),
			Fields:     fields,
		})
	}
	return databases, true
}

// Shutdown asks the server to shut down and reports whether it acknowledged.
// A server that drops the connection before replying has not acknowledged.
func (a *AdminSession) Shutdown(ctx context.Context) bool {
	_, ok := a.run(ctx, CmdShutdown, bson.D{{Key: CmdShutdown, Value: 1}})
	return ok
}

// SetLoggingLevel sets the server's operation logging level.
func (a *AdminSession) SetLoggingLevel(ctx context.Context, level LogLevel) bool {
	if !level.Valid() {
		a.logger.Warn("Invalid logging level", "level", int(level))
		AdminCommands.WithLabelValues(CmdOpLogging, outcomeRefused).Inc()
		return false
	}
	_, ok := a.run(ctx, CmdOpLogging, bson.D{{Key: CmdOpLogging, Value: int(level)}})
	return ok
}

// SetTracingLevel sets the server's general tracing level.
func (a *AdminSession) SetTracingLevel(ctx context.Context, level TraceLevel) bool {
	return a.setTrace(ctx, CmdTraceAll, level)
}

// SetQueryTracingLevel sets the server's query tracing level.
func (a *AdminSession) SetQueryTracingLevel(ctx context.Context, level TraceLevel) bool {
	return a.setTrace(ctx, CmdQueryTrace, level)
}

func (a *AdminSession) setTrace(ctx context.Context, command string, level TraceLevel) bool {
	if !level.Valid() {
		a.logger.Warn("Invalid tracing level", "command", command, "level", int(level))
		AdminCommands.WithLabelValues(command, outcomeRefused).Inc()
		return false
	}
	_, ok := a.run(ctx, command, bson.D{{Key: command, Value: int(level)}})
	return ok
}

// run sends one privileged command after checking the session state and the
// optional authorizer.
func (a *AdminSession) run(ctx context.Context, command string, cmd bson.D) (Response, bool) {
	logger := a.logger.With("command", command)

	if !a.Authenticated() {
		logger.Warn("Refusing privileged command on unauthenticated session", "state", a.State())
		AdminCommands.WithLabelValues(command, outcomeRefused).Inc()
		return nil, false
	}

	allowed, err := a.authorizer.Authorize(a.username, a.database, command)
	if err != nil {
		logger.Error("Authorization check failed", "error", err)
	}
	if !allowed {
		AdminCommands.WithLabelValues(command, outcomeDenied).Inc()
		return nil, false
	}

	resp, err := a.channel.RunCommand(ctx, a.database, cmd)
	if err != nil {
		logger.Warn("Command failed", "error", err)
		AdminCommands.WithLabelValues(command, outcomeFailure).Inc()
		return nil, false
	}
	if !resp.OK() {
		logger.Warn("Command rejected", "errmsg", resp.Errmsg(), "code", resp.Int(FieldCode))
		AdminCommands.WithLabelValues(command, outcomeRejected).Inc()
		return nil, false
	}

	AdminCommands.WithLabelValues(command, outcomeSuccess).Inc()
	return resp, true
}
