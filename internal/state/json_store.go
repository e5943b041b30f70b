package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/TheMichaelB/pinvault/internal/events"
)

const jsonStoreFile = "vault.json"

// JSONStore keeps all records in a single checksummed JSON file.
type JSONStore struct {
	path   string
	logger *events.Logger

	mu sync.RWMutex
}

// NewJSONStore creates a JSON-based state store.
func NewJSONStore(baseDir string, logger *events.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	return &JSONStore{
		path:   filepath.Join(baseDir, jsonStoreFile),
		logger: logger.WithField("component", "json_state_store"),
	}, nil
}

// Path returns the state file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Get reads a record.
func (s *JSONStore) Get(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, _, err := s.load()
	if err != nil {
		return nil, err
	}

	value, ok := doc.Records[name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

// Put writes a record.
func (s *JSONStore) Put(name string, value []byte) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.WithFields(map[string]interface{}{
		"record": name,
		"size":   len(value),
	}).Debug("Saving record")

	doc, fromBackup, err := s.load()
	if err != nil {
		return err
	}

	doc.Records[name] = append([]byte(nil), value...)
	return s.save(doc, !fromBackup)
}

// Delete removes a record.
func (s *JSONStore) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, fromBackup, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := doc.Records[name]; !ok {
		return nil
	}

	s.logger.WithField("record", name).Debug("Deleting record")

	delete(doc.Records, name)
	return s.save(doc, !fromBackup)
}

// List returns all record names.
func (s *JSONStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, _, err := s.load()
	if err != nil {
		return nil, err
	}
	return sortedKeys(doc.Records), nil
}

// Reset removes the state file and its backup.
func (s *JSONStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Resetting state")

	for _, path := range []string{s.path, s.backupPath(), s.path + ".tmp"} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", filepath.Base(path), err)
		}
	}

	return nil
}

// Migrate transfers all records to another store.
func (s *JSONStore) Migrate(target Store) error {
	return copyRecords(s, target, s.logger)
}

// Close releases resources.
func (s *JSONStore) Close() error {
	return nil
}

// Helper methods

func (s *JSONStore) backupPath() string {
	return s.path + ".backup"
}

// load returns the current document. A missing file yields an empty
// document. A corrupt file falls back to the backup, reported by the
// second return value.
func (s *JSONStore) load() (*document, bool, error) {
	doc, err := s.readDocument(s.path)
	if err == nil {
		return doc, false, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return newDocument(), false, nil
	}
	if !errors.Is(err, ErrStateCorrupt) {
		return nil, false, err
	}

	s.logger.WithError(err).Error("State file corrupt")

	// Try backup file
	backup, backupErr := s.readDocument(s.backupPath())
	if backupErr != nil {
		return nil, false, ErrStateCorrupt
	}

	s.logger.Warn("Loaded state from backup due to corruption")
	return backup, true, nil
}

func (s *JSONStore) readDocument(path string) (*document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateCorrupt, err)
	}

	// Verify checksum if present
	if doc.Checksum != "" {
		calculated, err := checksum(&doc)
		if err != nil {
			return nil, err
		}

		if calculated != doc.Checksum {
			s.logger.WithFields(map[string]interface{}{
				"expected": doc.Checksum,
				"actual":   calculated,
				"path":     filepath.Base(path),
			}).Error("State checksum mismatch")
			return nil, fmt.Errorf("%w: checksum mismatch", ErrStateCorrupt)
		}
	}

	// Check schema version
	if doc.SchemaVersion != CurrentSchemaVersion {
		s.logger.WithField("version", doc.SchemaVersion).Warn("State schema version mismatch")
	}

	if doc.Records == nil {
		doc.Records = make(map[string][]byte)
	}

	return &doc, nil
}

// save writes doc atomically, first copying the current file to the
// backup when keepBackup is set.
func (s *JSONStore) save(doc *document, keepBackup bool) error {
	doc.SchemaVersion = CurrentSchemaVersion
	doc.UpdatedAt = time.Now().UTC()

	sum, err := checksum(doc)
	if err != nil {
		return err
	}
	doc.Checksum = sum

	jsonData, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state with checksum: %w", err)
	}

	// Create backup of existing file
	if keepBackup {
		if _, err := os.Stat(s.path); err == nil {
			if err := copyFile(s.path, s.backupPath()); err != nil {
				s.logger.WithError(err).Warn("Failed to create backup")
			}
		}
	}

	// Write atomically
	tmpPath := s.path + ".tmp"
	if err := writeSynced(tmpPath, jsonData); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename state file: %w", err)
	}

	return nil
}

func newDocument() *document {
	return &document{
		SchemaVersion: CurrentSchemaVersion,
		Records:       make(map[string][]byte),
	}
}

// checksum hashes the document with its checksum field cleared.
func checksum(doc *document) (string, error) {
	verification := document{
		SchemaVersion: doc.SchemaVersion,
		UpdatedAt:     doc.UpdatedAt,
		Records:       doc.Records,
	}
	data, err := json.Marshal(verification)
	if err != nil {
		return "", fmt.Errorf("marshal state for checksum: %w", err)
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
