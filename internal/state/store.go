package state

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/TheMichaelB/pinvault/internal/events"
)

// Store persists named records. Values are opaque bytes.
type Store interface {
	// Get returns the value stored under name, or ErrNotFound.
	Get(name string) ([]byte, error)

	// Put stores value under name, replacing any existing value.
	Put(name string, value []byte) error

	// Delete removes name. Deleting a missing record is not an error.
	Delete(name string) error

	// List returns all record names in sorted order.
	List() ([]string, error)

	// Reset removes every record along with any backups.
	Reset() error

	// Migrate copies all records into target.
	Migrate(target Store) error

	// Close releases resources.
	Close() error
}

// Backends accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrStateCorrupt = errors.New("state file is corrupt")
	ErrInvalidName  = errors.New("invalid record name")
)

// CurrentSchemaVersion for migrations.
const CurrentSchemaVersion = 1

// document is the on-disk layout of a JSONStore.
type document struct {
	SchemaVersion int               `json:"schema_version"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Records       map[string][]byte `json:"records"`
	Checksum      string            `json:"checksum,omitempty"`
}

// Open creates the store for backend rooted at dir.
func Open(backend, dir string, logger *events.Logger) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return NewJSONStore(dir, logger)
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, "vault.db"), logger)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown state backend: %s", backend)
	}
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "\x00/\\") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// copyRecords writes every record of src into target.
func copyRecords(src, target Store, logger *events.Logger) error {
	names, err := src.List()
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	logger.WithField("count", len(names)).Info("Migrating records")

	for _, name := range names {
		value, err := src.Get(name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read record %s: %w", name, err)
		}

		if err := target.Put(name, value); err != nil {
			return fmt.Errorf("write record %s: %w", name, err)
		}

		logger.WithField("record", name).Debug("Migrated record")
	}

	return nil
}

func sortedKeys(m map[string][]byte) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
