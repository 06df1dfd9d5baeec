package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/otrsclient/internal/constants"
	"github.com/goatkit/otrsclient/internal/database"
	"github.com/goatkit/otrsclient/pkg/apierrors"
)

// SQLStore keeps session records in a table keyed by login:
//
//	otrs_session_cache(login PRIMARY KEY, created_at BIGINT, token)
//
// A missing row or an empty token means no session.
type SQLStore struct {
	db    *sqlx.DB
	login string
	table string
}

// SQLOption configures a SQLStore.
type SQLOption func(*SQLStore)

// WithTable overrides the table name.
func WithTable(table string) SQLOption {
	return func(s *SQLStore) {
		s.table = table
	}
}

// NewSQLStore creates a store for login.
func NewSQLStore(db *sqlx.DB, login string, opts ...SQLOption) *SQLStore {
	s := &SQLStore{
		db:    db,
		login: login,
		table: constants.DefaultSessionTable,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type sessionRow struct {
	CreatedAt int64  `db:"created_at"`
	Token     string `db:"token"`
}

// EnsureSchema creates the session table if it does not exist.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		login VARCHAR(200) NOT NULL PRIMARY KEY,
		created_at BIGINT NOT NULL,
		token VARCHAR(255) NOT NULL
	)`, s.quotedTable())
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context) (*Record, error) {
	var row sessionRow
	query := s.rebind(fmt.Sprintf(`SELECT created_at, token FROM %s WHERE login = ?`, s.quotedTable()))
	err := s.db.GetContext(ctx, &row, query, s.login)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session for %s: %w", s.login, err)
	}

	if row.Token == "" {
		return nil, nil
	}
	if row.CreatedAt <= 0 {
		cause := fmt.Errorf("invalid creation time %d", row.CreatedAt)
		if err := s.Clear(ctx); err != nil {
			return nil, errors.Join(apierrors.Wrap(apierrors.KindCorruptCache, cause, "session row for %s is corrupt", s.login), err)
		}
		return nil, apierrors.Wrap(apierrors.KindCorruptCache, cause, "session row for %s cleared", s.login)
	}
	return &Record{Token: row.Token, CreatedAt: row.CreatedAt}, nil
}

// Save replaces the row for the login inside one transaction.
func (s *SQLStore) Save(ctx context.Context, rec Record) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	deleteQuery := s.rebind(fmt.Sprintf(`DELETE FROM %s WHERE login = ?`, s.quotedTable()))
	if _, err = tx.ExecContext(ctx, deleteQuery, s.login); err != nil {
		return fmt.Errorf("failed to replace session for %s: %w", s.login, err)
	}

	insertQuery := s.rebind(fmt.Sprintf(`INSERT INTO %s (login, created_at, token) VALUES (?, ?, ?)`, s.quotedTable()))
	if _, err = tx.ExecContext(ctx, insertQuery, s.login, rec.CreatedAt, rec.Token); err != nil {
		return fmt.Errorf("failed to insert session for %s: %w", s.login, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context) error {
	query := s.rebind(fmt.Sprintf(`DELETE FROM %s WHERE login = ?`, s.quotedTable()))
	if _, err := s.db.ExecContext(ctx, query, s.login); err != nil {
		return fmt.Errorf("failed to clear session for %s: %w", s.login, err)
	}
	return nil
}

func (s *SQLStore) rebind(query string) string {
	return database.ConvertPlaceholders(s.db.DriverName(), query)
}

func (s *SQLStore) quotedTable() string {
	return database.QuoteIdentifier(s.db.DriverName(), s.table)
}
