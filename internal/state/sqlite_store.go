package state

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/TheMichaelB/pinvault/internal/events"
)

// SQLiteStore implements SQLite-based state storage.
type SQLiteStore struct {
	db     *sql.DB
	logger *events.Logger
}

// NewSQLiteStore creates a SQLite state store.
func NewSQLiteStore(dbPath string, logger *events.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "sqlite_state_store"),
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return store, nil
}

// initialize creates tables.
func (s *SQLiteStore) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS records (
        name TEXT PRIMARY KEY,
        value BLOB NOT NULL,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS schema_info (
        version INTEGER PRIMARY KEY
    );

    INSERT OR IGNORE INTO schema_info (version) VALUES (?);
    `

	if _, err := s.db.Exec(schema, CurrentSchemaVersion); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Get reads a record.
func (s *SQLiteStore) Get(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.QueryRow("SELECT value FROM records WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}

	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Put upserts a record.
func (s *SQLiteStore) Put(name string, value []byte) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"record": name,
		"size":   len(value),
	}).Debug("Saving record to SQLite")

	if value == nil {
		value = []byte{}
	}

	_, err := s.db.Exec(`
        INSERT INTO records (name, value, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(name) DO UPDATE SET
            value = excluded.value,
            updated_at = CURRENT_TIMESTAMP
    `, name, value)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}

	return nil
}

// Delete removes a record.
func (s *SQLiteStore) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	if _, err := s.db.Exec("DELETE FROM records WHERE name = ?", name); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	return nil
}

// List returns all record names.
func (s *SQLiteStore) List() ([]string, error) {
	rows, err := s.db.Query("SELECT name FROM records ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan record name: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// Reset removes every record and compacts the database file.
func (s *SQLiteStore) Reset() error {
	s.logger.Info("Resetting state in SQLite")

	if _, err := s.db.Exec("DELETE FROM records"); err != nil {
		return fmt.Errorf("delete records: %w", err)
	}

	// Freed pages would otherwise still hold old envelope bytes
	if _, err := s.db.Exec("VACUUM"); err != nil {
		s.logger.WithError(err).Warn("Failed to vacuum database")
	}

	return nil
}

// Migrate transfers all records to another store.
func (s *SQLiteStore) Migrate(target Store) error {
	return copyRecords(s, target, s.logger)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
