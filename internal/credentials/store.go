package credentials

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// StorageKey is the well-known key the credential is persisted under.
const StorageKey = "jwt"

// Store holds at most one live credential.
type Store interface {
	// Get returns the current credential, or nil when none is stored.
	Get(ctx context.Context) (*Credential, error)
	// Set replaces the current credential.
	Set(ctx context.Context, c *Credential) error
	// Clear removes the current credential.
	Clear(ctx context.Context) error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// MemoryStore keeps the credential in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(ctx context.Context) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return nil, nil
	}
	return &Credential{Token: s.token}, nil
}

func (s *MemoryStore) Set(ctx context.Context, c *Credential) error {
	if c == nil || c.Token == "" {
		return fmt.Errorf("cannot store empty credential")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = c.Token
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// SQLiteStore persists the credential in the credentials table.
//
// The table is created by [shared.RunMigrations].
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new [SQLiteStore] with the given database connection
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get retrieves the stored credential, returning nil when the row is absent.
func (s *SQLiteStore) Get(ctx context.Context) (*Credential, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM credentials WHERE key = ?", StorageKey).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}
	return &Credential{Token: value}, nil
}

// Set upserts the credential row.
func (s *SQLiteStore) Set(ctx context.Context, c *Credential) error {
	if c == nil || c.Token == "" {
		return fmt.Errorf("cannot store empty credential")
	}

	query := `
		INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, StorageKey, c.Token, time.Now()); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Clear deletes the credential row.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM credentials WHERE key = ?", StorageKey); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}
