package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/shadowfine/mongo-php-driver/auth"
	"github.com/spf13/cobra"
)

var errNotAcknowledged = errors.New("command was not acknowledged")

type cliOptions struct {
	configPath string
	host       string
	port       int
	database   string
	user       string
	password   string
	digest     string
	mechanism  string
	logLevel   string
	timeout    time.Duration
}

// credential returns the secret from --digest when given, otherwise --password.
func (o *cliOptions) credential(cfg *auth.Config) auth.Credential {
	user := o.user
	if user == "" {
		user = cfg.Username
	}
	if o.digest != "" {
		return auth.Credential{Username: user, Secret: o.digest}
	}
	return auth.Credential{Username: user, Secret: o.password, Plaintext: true}
}

// config loads the config file, if any, and applies flag overrides.
func (o *cliOptions) config() (*auth.Config, error) {
	cfg := auth.DefaultConfig()
	if o.configPath != "" {
		loaded, err := auth.LoadConfigFile(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.database != "" {
		cfg.Database = o.database
	}
	if o.mechanism != "" {
		cfg.Mechanism = auth.Mechanism(o.mechanism)
	}
	return cfg, nil
}

type cli struct {
	opts   cliOptions
	logger hclog.Logger
}

func newRootCommand(logger hclog.Logger) *cobra.Command {
	c := &cli{logger: logger}

	root := &cobra.Command{
		Use:           "mongoauth",
		Short:         "Authenticate against MongoDB and run administrative commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := hclog.LevelFromString(c.opts.logLevel)
			if level == hclog.NoLevel {
				return fmt.Errorf("unknown log level %q", c.opts.logLevel)
			}
			c.logger.SetLevel(level)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.opts.configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVar(&c.opts.host, "host", "", "Server host (default from config)")
	flags.IntVar(&c.opts.port, "port", 0, "Server port (default from config)")
	flags.StringVarP(&c.opts.database, "database", "d", "", "Database to authenticate against")
	flags.StringVarP(&c.opts.user, "user", "u", "", "Username")
	flags.StringVarP(&c.opts.password, "password", "p", "", "Plaintext password")
	flags.StringVar(&c.opts.digest, "digest", "", "Precomputed credential digest, used instead of --password")
	flags.StringVarP(&c.opts.mechanism, "mechanism", "m", "", "Authentication mechanism")
	flags.StringVar(&c.opts.logLevel, "log-level", "info", "Log level")
	flags.DurationVar(&c.opts.timeout, "timeout", 30*time.Second, "Overall command timeout")
	root.MarkFlagsMutuallyExclusive("password", "digest")

	root.AddCommand(
		c.digestCommand(),
		c.loginCommand(),
		c.logoutCommand(),
		c.listDatabasesCommand(),
		c.shutdownCommand(),
		c.levelCommand("set-logging", "Set the server's operation logging level", auth.CmdOpLogging),
		c.levelCommand("set-tracing", "Set the server's tracing level", auth.CmdTraceAll),
		c.levelCommand("set-query-tracing", "Set the server's query tracing level", auth.CmdQueryTrace),
	)

	return root
}

func (c *cli) digestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Print the credential digest for --user and --password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.opts.user == "" {
				return auth.ErrMissingUsername
			}
			fmt.Fprintln(cmd.OutOrStdout(), auth.CredentialDigest(c.opts.user, c.opts.password))
			return nil
		},
	}
}

func (c *cli) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate and report the session status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withSession(cmd, func(ctx context.Context, session *auth.Session) error {
				fmt.Fprintln(cmd.OutOrStdout(), session.Describe())
				return nil
			})
		},
	}
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Authenticate, then log the session out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withSession(cmd, func(ctx context.Context, session *auth.Session) error {
				if !session.Logout(ctx) {
					return fmt.Errorf("logout: %w", errNotAcknowledged)
				}
				fmt.Fprintln(cmd.OutOrStdout(), session.Describe())
				return nil
			})
		},
	}
}

func (c *cli) listDatabasesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "listdbs",
		Short: "List the server's databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withAdmin(cmd, func(ctx context.Context, admin *auth.AdminSession) error {
				databases, ok := admin.ListDatabases(ctx)
				if !ok {
					return fmt.Errorf("%s: %w", auth.CmdListDatabases, errNotAcknowledged)
				}
				for _, db := range databases {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%t\n", db.Name, db.SizeOnDisk, db.Empty)
				}
				return nil
			})
		},
	}
}

func (c *cli) shutdownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Ask the server to shut down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withAdmin(cmd, func(ctx context.Context, admin *auth.AdminSession) error {
				if !admin.Shutdown(ctx) {
					return fmt.Errorf("%s: %w", auth.CmdShutdown, errNotAcknowledged)
				}
				return nil
			})
		},
	}
}

// levelCommand builds one of the set-* commands. The level argument is a name
// or its numeric value.
func (c *cli) levelCommand(use, short, command string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " LEVEL",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apply, err := levelSetter(command, args[0])
			if err != nil {
				return err
			}
			return c.withAdmin(cmd, func(ctx context.Context, admin *auth.AdminSession) error {
				if !apply(ctx, admin) {
					return fmt.Errorf("%s: %w", command, errNotAcknowledged)
				}
				return nil
			})
		},
	}
}

func levelSetter(command, arg string) (func(context.Context, *auth.AdminSession) bool, error) {
	if command == auth.CmdOpLogging {
		level, err := auth.ParseLogLevel(arg)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, admin *auth.AdminSession) bool {
			return admin.SetLoggingLevel(ctx, level)
		}, nil
	}

	level, err := auth.ParseTraceLevel(arg)
	if err != nil {
		return nil, err
	}
	if command == auth.CmdQueryTrace {
		return func(ctx context.Context, admin *auth.AdminSession) bool {
			return admin.SetQueryTracingLevel(ctx, level)
		}, nil
	}
	return func(ctx context.Context, admin *auth.AdminSession) bool {
		return admin.SetTracingLevel(ctx, level)
	}, nil
}

// session dials the server and authenticates against database.
func (c *cli) session(ctx context.Context, database string) (*auth.Session, error) {
	cfg, err := c.opts.config()
	if err != nil {
		return nil, err
	}
	if database == "" {
		database = cfg.Database
	}

	if cfg.Metrics.Enabled {
		go exposeMetrics(cfg.Metrics, c.logger)
	}

	dialer, err := auth.NewMongoDialer(cfg, c.logger)
	if err != nil {
		return nil, err
	}

	authenticator, err := auth.NewAuthenticator(cfg.Mechanism, dialer.TLSConfig, c.logger)
	if err != nil {
		return nil, err
	}

	authorizer, err := auth.NewAuthorizer(
		cfg.Authorization.ModelPath, cfg.Authorization.PolicyPath, c.logger)
	if err != nil {
		return nil, err
	}

	session, err := auth.Connect(ctx, cfg, dialer, c.opts.host, c.opts.port, database,
		c.opts.credential(cfg),
		auth.WithLogger(c.logger),
		auth.WithAuthenticator(authenticator),
		auth.WithAuthorizer(authorizer),
	)
	if err != nil {
		return nil, err
	}
	if !session.Authenticated() {
		_ = session.Close(ctx)
		return nil, fmt.Errorf("%s (code %d)", session.Error(), session.ErrorCode())
	}
	return session, nil
}

func (c *cli) withSession(cmd *cobra.Command, fn func(context.Context, *auth.Session) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), c.opts.timeout)
	defer cancel()

	session, err := c.session(ctx, c.opts.database)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(ctx); err != nil {
			c.logger.Debug("Failed to close connection", "error", err)
		}
	}()
	return fn(ctx, session)
}

func (c *cli) withAdmin(cmd *cobra.Command, fn func(context.Context, *auth.AdminSession) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), c.opts.timeout)
	defer cancel()

	session, err := c.session(ctx, auth.AdminDatabase)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(ctx); err != nil {
			c.logger.Debug("Failed to close connection", "error", err)
		}
	}()
	return fn(ctx, &auth.AdminSession{Session: session})
}
