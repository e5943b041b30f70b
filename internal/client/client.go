// Package client wires configuration, persistence and the vault into the
// high-level API used by the command line.
package client

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/TheMichaelB/pinvault/internal/config"
	"github.com/TheMichaelB/pinvault/internal/crypto"
	"github.com/TheMichaelB/pinvault/internal/events"
	"github.com/TheMichaelB/pinvault/internal/session"
	"github.com/TheMichaelB/pinvault/internal/state"
	"github.com/TheMichaelB/pinvault/internal/storage"
	"github.com/TheMichaelB/pinvault/internal/vault"
)

// EncryptedExt is appended to encrypted output when no destination is given.
const EncryptedExt = ".enc"

// ErrSamePath is returned when source and destination resolve to one file.
var ErrSamePath = errors.New("source and destination are the same file")

// Client provides the high-level API for pinvault operations.
type Client struct {
	Vault *vault.Vault

	config  *config.Config
	logger  *events.Logger
	state   state.Store
	storage storage.BlobStore
}

// New creates a client backed by the configured state store and a file
// store rooted at the working directory.
func New(cfg *config.Config, logger *events.Logger) (*Client, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	stateStore, err := state.Open(cfg.Storage.Backend, cfg.Storage.StateDir, logger)
	if err != nil {
		return nil, err
	}

	blobStore, err := storage.NewLocalStore(".", logger)
	if err != nil {
		stateStore.Close()
		return nil, err
	}

	return NewWithStores(cfg, logger, stateStore, blobStore), nil
}

// NewEphemeral creates a client whose envelope lives only in memory.
func NewEphemeral(cfg *config.Config, logger *events.Logger) (*Client, error) {
	blobStore, err := storage.NewLocalStore(".", logger)
	if err != nil {
		return nil, err
	}
	return NewWithStores(cfg, logger, state.NewMemoryStore(), blobStore), nil
}

// NewWithStores creates a client over caller-supplied stores.
func NewWithStores(cfg *config.Config, logger *events.Logger, stateStore state.Store, blobStore storage.BlobStore) *Client {
	if logger == nil {
		logger = events.Discard()
	}

	if local, ok := blobStore.(*storage.LocalStore); ok {
		// Ciphertext carries a nonce and tag on top of the plaintext limit.
		local.SetMaxFileSize(cfg.Storage.MaxFileSize + crypto.NonceSize + crypto.TagSize)
	}

	v := vault.New(stateStore, session.NewCache(), crypto.NewProvider(), cfg.Vault, logger)

	c := &Client{
		Vault:   v,
		config:  cfg,
		logger:  logger.WithField("component", "client"),
		state:   stateStore,
		storage: blobStore,
	}
	c.SetOverwrite(cfg.Storage.Overwrite)
	return c
}

// SetOverwrite controls whether existing output files are replaced.
func (c *Client) SetOverwrite(overwrite bool) {
	c.config.Storage.Overwrite = overwrite

	strategy := storage.ConflictError
	if overwrite {
		strategy = storage.ConflictOverwrite
	}

	switch s := c.storage.(type) {
	case *storage.LocalStore:
		s.SetConflictStrategy(strategy)
	case *storage.MemoryStore:
		s.SetConflictStrategy(strategy)
	}
}

// SetStorageBase sets the base directory for file operations.
func (c *Client) SetStorageBase(basePath string) error {
	if localStore, ok := c.storage.(*storage.LocalStore); ok {
		return localStore.SetBasePath(basePath)
	}
	return nil
}

// EncryptPath encrypts src and writes the blob to dst. An empty dst
// defaults to src with EncryptedExt appended. Returns the output path.
func (c *Client) EncryptPath(ctx context.Context, src, dst string) (string, error) {
	if dst == "" {
		dst = src + EncryptedExt
	}
	if err := checkDistinct(src, dst); err != nil {
		return "", err
	}

	plaintext, err := c.storage.Read(src)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", src, err)
	}
	defer crypto.Zero(plaintext)

	if int64(len(plaintext)) > c.config.Storage.MaxFileSize {
		return "", fmt.Errorf("read %s: %w: %d bytes (max: %d)",
			src, storage.ErrTooLarge, len(plaintext), c.config.Storage.MaxFileSize)
	}

	blob, err := c.Vault.EncryptFile(ctx, plaintext)
	if err != nil {
		return "", err
	}

	if err := c.storage.Write(dst, blob, 0600); err != nil {
		return "", fmt.Errorf("write %s: %w", dst, err)
	}

	c.opLogger(ctx).WithFields(map[string]interface{}{
		"src":  src,
		"dst":  dst,
		"size": len(plaintext),
	}).Info("Encrypted file")

	return dst, nil
}

// DecryptPath decrypts the blob at src and writes the plaintext to dst.
// An empty dst strips EncryptedExt from src, or appends ".dec" when src
// has no such suffix. Returns the output path.
func (c *Client) DecryptPath(ctx context.Context, src, dst string) (string, error) {
	if dst == "" {
		dst = DefaultDecryptedPath(src)
	}
	if err := checkDistinct(src, dst); err != nil {
		return "", err
	}

	blob, err := c.storage.Read(src)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", src, err)
	}

	plaintext, err := c.Vault.DecryptFile(ctx, blob)
	if err != nil {
		return "", err
	}
	defer crypto.Zero(plaintext)

	if err := c.storage.Write(dst, plaintext, 0600); err != nil {
		return "", fmt.Errorf("write %s: %w", dst, err)
	}

	c.opLogger(ctx).WithFields(map[string]interface{}{
		"src":  src,
		"dst":  dst,
		"size": len(plaintext),
	}).Info("Decrypted file")

	return dst, nil
}

// DefaultDecryptedPath derives the output path for a decrypted blob.
func DefaultDecryptedPath(src string) string {
	if strings.HasSuffix(src, EncryptedExt) && len(src) > len(EncryptedExt) {
		return strings.TrimSuffix(src, EncryptedExt)
	}
	return src + ".dec"
}

// Close logs out and releases the state store.
func (c *Client) Close() error {
	c.Vault.Logout()
	return c.state.Close()
}

func (c *Client) opLogger(ctx context.Context) *events.Logger {
	if id := events.GetOperationID(ctx); id != "" {
		return c.logger.WithField("op_id", id)
	}
	return c.logger
}

func checkDistinct(src, dst string) error {
	if filepath.Clean(src) == filepath.Clean(dst) {
		return fmt.Errorf("%w: %s", ErrSamePath, src)
	}
	return nil
}
