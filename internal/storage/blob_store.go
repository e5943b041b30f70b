package storage

import (
	"errors"
	"os"
	"time"
)

// BlobStore reads and writes whole files under a base directory.
type BlobStore interface {
	// Write saves data to a file path.
	Write(path string, data []byte, mode os.FileMode) error

	// Read retrieves file contents.
	Read(path string) ([]byte, error)

	// Delete removes a file.
	Delete(path string) error

	// Exists checks if a file exists.
	Exists(path string) (bool, error)

	// Stat returns file information.
	Stat(path string) (FileInfo, error)
}

// FileInfo contains file metadata.
type FileInfo struct {
	Path      string
	Size      int64
	Mode      os.FileMode
	ModTime   time.Time
	IsDir     bool
	IsSymlink bool
}

// ConflictStrategy defines how to handle an existing destination file.
type ConflictStrategy int

const (
	// ConflictOverwrite replaces existing files.
	ConflictOverwrite ConflictStrategy = iota

	// ConflictError returns ErrExists on conflict.
	ConflictError
)

// Errors
var (
	ErrNotFound    = errors.New("file not found")
	ErrExists      = errors.New("file already exists")
	ErrTooLarge    = errors.New("file too large")
	ErrInvalidPath = errors.New("invalid path")
)
