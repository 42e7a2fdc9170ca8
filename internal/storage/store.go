package storage

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// KeyValueStore is a string key-value store.
type KeyValueStore interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Setting keys stored in the key-value table.
const (
	SettingClosingMessage = "settings.closingMessage"
)

// SQLiteStore is the local persistence layer: a key-value table holding
// history and settings, plus the listing response cache.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ KeyValueStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the SQLite database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Configure SQLite with WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	// The file exists after init; history is private to the user
	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("dbPath", dbPath).Msg("failed to restrict database permissions")
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	kvQuery := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(kvQuery); err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}

	listingCacheQuery := `
	CREATE TABLE IF NOT EXISTS listing_cache (
		cache_key TEXT PRIMARY KEY,
		response_text TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(listingCacheQuery); err != nil {
		return fmt.Errorf("failed to create listing_cache table: %w", err)
	}

	return nil
}

// Get implements KeyValueStore.
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query key %q: %w", key, err)
	}
	return value, true, nil
}

// Set implements KeyValueStore.
func (s *SQLiteStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}

// Delete implements KeyValueStore.
func (s *SQLiteStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// GetSetting returns a user setting, or fallback when it is not set.
func (s *SQLiteStore) GetSetting(key, fallback string) (string, error) {
	value, ok, err := s.Get(key)
	if err != nil {
		return fallback, err
	}
	if !ok {
		return fallback, nil
	}
	return value, nil
}

// SetSetting stores a user setting.
func (s *SQLiteStore) SetSetting(key, value string) error {
	return s.Set(key, value)
}

// GetListingCache returns a cached response text, or "" when there is none.
func (s *SQLiteStore) GetListingCache(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var text string
	err := s.db.QueryRow("SELECT response_text FROM listing_cache WHERE cache_key = ?", key).Scan(&text)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query listing cache: %w", err)
	}
	return text, nil
}

// SetListingCache stores a response text in the cache.
func (s *SQLiteStore) SetListingCache(key, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO listing_cache (cache_key, response_text)
		VALUES (?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			response_text = excluded.response_text,
			created_at = CURRENT_TIMESTAMP
	`, key, text)
	if err != nil {
		return fmt.Errorf("failed to cache listing response: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
