// Package session persists and validates the OTRS session token.
//
// A Store keeps one (token, creation time) record per login on durable
// storage so short-lived client processes can share an authenticated session.
// Manager layers the in-memory cache and expiry policy on top of a Store.
package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Store persists the session record of a single login.
type Store interface {
	// Load returns the stored record, or nil when there is none.
	// Unparsable content is cleared and reported as apierrors.KindCorruptCache.
	Load(ctx context.Context) (*Record, error)
	// Save replaces the stored record as a unit.
	Save(ctx context.Context, rec Record) error
	// Clear removes the stored record. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}

// Record is the durable session representation.
type Record struct {
	Token     string
	CreatedAt int64 // unix seconds
}

// String renders the record in cache format "<createdAt>:<token>".
func (r Record) String() string {
	return strconv.FormatInt(r.CreatedAt, 10) + ":" + r.Token
}

// ParseRecord parses the cache format. Blank input yields nil, nil.
func ParseRecord(raw string) (*Record, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected 2 colon-separated fields, got %d", len(parts))
	}
	createdAt, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid creation time %q: %w", parts[0], err)
	}
	if createdAt <= 0 {
		return nil, fmt.Errorf("invalid creation time %d", createdAt)
	}
	if parts[1] == "" {
		return nil, fmt.Errorf("empty session token")
	}
	return &Record{Token: parts[1], CreatedAt: createdAt}, nil
}
