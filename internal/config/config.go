package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all application configuration.
type Config struct {
	// Key management and unlock policy
	Vault VaultConfig `json:"vault" mapstructure:"vault"`

	// Storage paths and backend
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`
}

// VaultConfig controls password policy and key derivation.
type VaultConfig struct {
	MinPasswordLength int     `json:"min_password_length" mapstructure:"min_password_length"`
	KDF               string  `json:"kdf" mapstructure:"kdf"`                             // sha256, pbkdf2-sha256, scrypt, argon2id
	PBKDF2Iterations  int     `json:"pbkdf2_iterations" mapstructure:"pbkdf2_iterations"` // Used when kdf is pbkdf2-sha256
	UnlockRate        float64 `json:"unlock_rate" mapstructure:"unlock_rate"`             // Attempts per second, <= 0 disables throttling
	UnlockBurst       int     `json:"unlock_burst" mapstructure:"unlock_burst"`
}

// StorageConfig for local paths.
type StorageConfig struct {
	DataDir     string `json:"data_dir" mapstructure:"data_dir"`           // Base directory for all data
	StateDir    string `json:"state_dir" mapstructure:"state_dir"`         // Envelope storage
	Backend     string `json:"backend" mapstructure:"backend"`             // json, sqlite
	MaxFileSize int64  `json:"max_file_size" mapstructure:"max_file_size"` // Max file size in bytes
	Overwrite   bool   `json:"overwrite" mapstructure:"overwrite"`         // Replace existing output files
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // text, json
	File   string `json:"file" mapstructure:"file"`     // Log file path (empty = stderr)
	Color  bool   `json:"color" mapstructure:"color"`   // Enable colored output
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := ".pinvault"
	if homeDir, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(homeDir, ".pinvault")
	}

	return &Config{
		Vault: VaultConfig{
			MinPasswordLength: 8,
			KDF:               "sha256",
			PBKDF2Iterations:  100000,
			UnlockRate:        1,
			UnlockBurst:       5,
		},
		Storage: StorageConfig{
			DataDir:     dataDir,
			StateDir:    filepath.Join(dataDir, "state"),
			Backend:     "json",
			MaxFileSize: 100 * 1024 * 1024, // 100MB
			Overwrite:   false,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
			File:   "",
			Color:  true,
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Vault.MinPasswordLength < 1 {
		return errors.New("vault.min_password_length must be positive")
	}

	validKDFs := map[string]bool{
		"sha256": true, "pbkdf2-sha256": true, "scrypt": true, "argon2id": true,
	}
	if !validKDFs[c.Vault.KDF] {
		return fmt.Errorf("invalid vault.kdf: %s", c.Vault.KDF)
	}

	if c.Vault.KDF == "pbkdf2-sha256" && c.Vault.PBKDF2Iterations < 100000 {
		return errors.New("vault.pbkdf2_iterations must be at least 100000")
	}

	if c.Vault.PBKDF2Iterations > 10_000_000 {
		return errors.New("vault.pbkdf2_iterations must be at most 10000000")
	}

	if c.Vault.UnlockRate > 0 && c.Vault.UnlockBurst <= 0 {
		return errors.New("vault.unlock_burst must be positive when throttling is enabled")
	}

	if c.Storage.StateDir == "" {
		return errors.New("storage.state_dir is required")
	}

	validBackends := map[string]bool{"json": true, "sqlite": true}
	if !validBackends[c.Storage.Backend] {
		return fmt.Errorf("invalid storage backend: %s", c.Storage.Backend)
	}

	if c.Storage.MaxFileSize <= 0 {
		return errors.New("storage.max_file_size must be positive")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDir,
		c.Storage.StateDir,
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
