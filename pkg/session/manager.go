package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goatkit/otrsclient/internal/constants"
	"github.com/goatkit/otrsclient/pkg/apierrors"
)

// Manager caches the session of one login in memory on top of a Store and
// decides whether the cached token is still usable.
//
// A token is usable while its remaining validity is positive and not smaller
// than the read timeout: a session that could expire during one request
// round-trip is treated as expired.
type Manager struct {
	mu          sync.Mutex
	store       Store
	expiry      time.Duration
	readTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger

	token     string
	createdAt int64
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithExpiry sets the session lifetime granted by the service.
func WithExpiry(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.expiry = d
		}
	}
}

// WithReadTimeout sets the minimum remaining validity of a usable token.
func WithReadTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d >= 0 {
			m.readTimeout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSession pre-seeds the in-memory session. Both values are required;
// otherwise the store is consulted on first use.
func WithSession(token string, createdAt int64) ManagerOption {
	return func(m *Manager) {
		if token != "" && createdAt != 0 {
			m.token, m.createdAt = token, createdAt
		}
	}
}

// NewManager creates a manager over store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:       store,
		expiry:      constants.DefaultSessionTimeout * time.Second,
		readTimeout: constants.Seconds(constants.DefaultReadTimeout),
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the backing store.
func (m *Manager) Store() Store { return m.store }

// Token returns the cached token, or "" when there is no usable session.
// A stale token is dropped from memory; the store keeps it until the next
// Save or Clear.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenLocked(ctx)
}

// SetToken adopts a freshly created token unless a usable one is already
// cached in memory or in the store, in which case the existing token wins
// and is returned. This avoids clobbering a session another process wrote
// while this one was authenticating.
func (m *Manager) SetToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apierrors.New(apierrors.KindInvalidArgument, "empty session token")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := m.tokenLocked(ctx)
	if err != nil {
		return "", err
	}
	if existing != "" {
		m.logger.Debug("keeping cached otrs session")
		return existing, nil
	}

	createdAt := m.now().Unix()
	if err := m.store.Save(ctx, Record{Token: token, CreatedAt: createdAt}); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}
	m.token, m.createdAt = token, createdAt
	return token, nil
}

// Clear removes the session from the store and from memory.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reset()
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// RemainingValidity reports how long the cached session stays valid. ok is
// false when no session is known; a zero or negative duration means expired.
// Unlike Token it never discards the cached session.
func (m *Manager) RemainingValidity(ctx context.Context) (remaining time.Duration, ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ok, err = m.loadLocked(ctx)
	if !ok || err != nil {
		return 0, false, err
	}
	return m.remainingLocked(), true, nil
}

func (m *Manager) tokenLocked(ctx context.Context) (string, error) {
	ok, err := m.loadLocked(ctx)
	if !ok || err != nil {
		return "", err
	}

	remaining := m.remainingLocked()
	if remaining <= 0 || remaining < m.readTimeout {
		m.logger.Debug("discarding stale otrs session", "remaining", remaining, "read_timeout", m.readTimeout)
		m.reset()
		return "", nil
	}
	return m.token, nil
}

func (m *Manager) loadLocked(ctx context.Context) (bool, error) {
	if m.token != "" && m.createdAt != 0 {
		return true, nil
	}

	rec, err := m.store.Load(ctx)
	if err != nil {
		m.reset()
		return false, err
	}
	if rec == nil {
		m.reset()
		return false, nil
	}
	m.token, m.createdAt = rec.Token, rec.CreatedAt
	return true, nil
}

func (m *Manager) remainingLocked() time.Duration {
	elapsed := m.now().Unix() - m.createdAt
	return m.expiry - time.Duration(elapsed)*time.Second
}

func (m *Manager) reset() {
	m.token, m.createdAt = "", 0
}
