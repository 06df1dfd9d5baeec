package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goatkit/otrsclient/internal/config"
	"github.com/goatkit/otrsclient/internal/database"
	"github.com/goatkit/otrsclient/internal/logging"
	"github.com/goatkit/otrsclient/pkg/apierrors"
	"github.com/goatkit/otrsclient/pkg/connection"
	"github.com/goatkit/otrsclient/pkg/otrs"
	"github.com/goatkit/otrsclient/pkg/session"
)

// app carries what every command needs once flags are parsed.
type app struct {
	v          *viper.Viper
	configFile string

	settings *config.Settings
	logger   *slog.Logger
	closers  []func() error
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:          "otrsctl",
		Short:        "Work with OTRS tickets over the GenericInterface REST API",
		SilenceUsage: true,
		Version:      version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "YAML config file")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newTicketCmd(a), newSessionCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if err := config.BindFlags(a.v, cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	s, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(s.LogLevel, s.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return apierrors.Wrap(apierrors.KindConfiguration, err, "logging")
	}
	slog.SetDefault(logger)

	a.settings = s
	a.logger = logger
	return nil
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// store opens the configured session backend.
func (a *app) store(ctx context.Context) (session.Store, error) {
	s := a.settings
	login := s.Connection.Login
	if login == "" {
		return nil, apierrors.New(apierrors.KindConfiguration, "login is required")
	}

	switch s.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     s.Redis.Addr,
			Password: s.Redis.Password,
			DB:       s.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)
		return session.NewRedisStore(client, login,
			session.WithKeyPrefix(s.Redis.KeyPrefix),
			session.WithTTL(s.Connection.SessionTimeout),
		), nil

	case config.BackendSQL:
		db, err := database.Open(ctx, s.SQL.Driver, s.SQL.DSN)
		if err != nil {
			return nil, apierrors.Wrap(apierrors.KindConfiguration, err, "session database")
		}
		a.closers = append(a.closers, db.Close)
		store := session.NewSQLStore(db, login, session.WithTable(s.SQL.Table))
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}

	path := s.Connection.SessionCacheFile
	if path == "" {
		path = session.DefaultCachePath(login)
	}
	return session.NewFileStore(path), nil
}

func (a *app) client(ctx context.Context) (*otrs.Client, error) {
	store, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	return otrs.New(a.settings.Connection,
		connection.WithLogger(a.logger),
		connection.WithSessionStore(store),
	)
}

// exitCode maps error kinds to distinct process exit codes.
func exitCode(err error) int {
	switch apierrors.KindOf(err) {
	case apierrors.KindConfiguration:
		return 2
	case apierrors.KindAuthenticationFailed, apierrors.KindAccessDenied:
		return 3
	case apierrors.KindTransport, apierrors.KindBadResponse, apierrors.KindProtocolError:
		return 4
	}
	return 1
}

func usageError(format string, args ...any) error {
	return apierrors.New(apierrors.KindInvalidArgument, format, args...)
}
