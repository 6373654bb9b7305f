// Package store provides storage backends for StandTall game sessions.
//
// It includes an in-memory store for tests and development, plus SQLite and
// PostgreSQL backed stores for persistent deployments.
package store

import (
	"strings"
	"sync"

	"github.com/couragelab/standtall/internal/models"
)

// Store persists game sessions. GetSession returns (nil, nil) when the
// session does not exist.
type Store interface {
	SaveSession(s models.GameSession) error
	GetSession(id string) (*models.GameSession, error)
	DeleteSession(id string) error
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". PostgreSQL DSNs
// use URL or key=value forms; anything else is treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryStore is a simple mutex-guarded in-memory session store.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[string]models.GameSession
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]models.GameSession)}
}

// SaveSession stores or replaces a session.
func (s *InMemoryStore) SaveSession(sess models.GameSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = copySession(sess)
	return nil
}

// GetSession retrieves a session by ID, or nil if it does not exist.
func (s *InMemoryStore) GetSession(id string) (*models.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	out := copySession(sess)
	return &out, nil
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (s *InMemoryStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

// copySession clones a session so callers never alias the stored log slice.
func copySession(sess models.GameSession) models.GameSession {
	out := sess
	out.Log = make([]models.MessageEntry, len(sess.Log))
	copy(out.Log, sess.Log)
	return out
}
