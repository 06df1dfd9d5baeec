package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/goatkit/otrsclient/pkg/session"
)

type sessionStatus struct {
	Login     string `json:"login" yaml:"login"`
	Backend   string `json:"backend" yaml:"backend"`
	Cached    bool   `json:"cached" yaml:"cached"`
	Token     string `json:"token,omitempty" yaml:"token,omitempty"`
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Remaining string `json:"remaining,omitempty" yaml:"remaining,omitempty"`
	Usable    bool   `json:"usable" yaml:"usable"`
}

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or drop the cached session",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the cached session and its remaining validity",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := a.manager(cmd)
				if err != nil {
					return err
				}
				ctx := cmd.Context()

				st := sessionStatus{Login: a.settings.Connection.Login, Backend: a.settings.Backend}
				rec, err := m.Store().Load(ctx)
				if err != nil {
					return err
				}
				if rec != nil {
					st.Cached = true
					st.Token = maskToken(rec.Token, a.settings.Connection.LogCredentials)
					st.CreatedAt = time.Unix(rec.CreatedAt, 0).UTC().Format(time.RFC3339)
				}
				remaining, ok, err := m.RemainingValidity(ctx)
				if err != nil {
					return err
				}
				if ok {
					st.Remaining = remaining.String()
					token, err := m.Token(ctx)
					if err != nil {
						return err
					}
					st.Usable = token != ""
				}
				return a.print(cmd.OutOrStdout(), st)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the cached session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := a.manager(cmd)
				if err != nil {
					return err
				}
				if err := m.Clear(cmd.Context()); err != nil {
					return err
				}
				a.logger.Info("cleared otrs session", "login", a.settings.Connection.Login, "backend", a.settings.Backend)
				return nil
			},
		},
	)
	return cmd
}

func (a *app) manager(cmd *cobra.Command) (*session.Manager, error) {
	store, err := a.store(cmd.Context())
	if err != nil {
		return nil, err
	}
	cfg := a.settings.Connection
	return session.NewManager(store,
		session.WithExpiry(cfg.SessionTimeout),
		session.WithReadTimeout(cfg.ReadTimeout),
		session.WithLogger(a.logger),
	), nil
}

func maskToken(token string, reveal bool) string {
	if reveal {
		return token
	}
	if len(token) <= 4 {
		return "***"
	}
	return token[:4] + "***"
}
