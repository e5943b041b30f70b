package crypto

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/text/unicode/norm"
)

// Key derivation algorithms recorded in envelopes.
const (
	KDFSHA256 = "sha256"
	KDFPBKDF2 = "pbkdf2-sha256"
	KDFScrypt = "scrypt"
	KDFArgon2 = "argon2id"
)

const (
	// PBKDF2 parameters
	DefaultIterations = 100000

	// Scrypt parameters
	ScryptN = 32768 // CPU/memory cost parameter
	ScryptR = 8     // block size parameter
	ScryptP = 1     // parallelization parameter

	// Argon2id parameters
	Argon2Time     = 2
	Argon2MemoryKB = 64 * 1024
	Argon2Threads  = 1
)

// Accepted ranges for recorded cost parameters.
const (
	MinIterations       = 1000
	MaxIterations       = 10_000_000
	MaxScryptN          = 1 << 20
	MaxScryptR          = 32
	MaxScryptP          = 16
	MaxArgon2Time       = 16
	MaxArgon2MemoryKB   = 1024 * 1024 // 1 GiB
	MaxArgon2Threads    = 16
	minArgon2MemPerLane = 8
)

// KDFParams selects a derivation algorithm and its cost parameters.
// Zero cost fields fall back to the package defaults.
type KDFParams struct {
	Algorithm  string `json:"algorithm"`
	Iterations int    `json:"iterations,omitempty"`
	MemoryKB   uint32 `json:"memory_kb,omitempty"`
	Threads    uint8  `json:"threads,omitempty"`
	N          int    `json:"n,omitempty"`
	R          int    `json:"r,omitempty"`
	P          int    `json:"p,omitempty"`
}

// DefaultKDFParams returns fully populated parameters for algorithm.
func DefaultKDFParams(algorithm string) (KDFParams, error) {
	switch algorithm {
	case "", KDFSHA256:
		return KDFParams{Algorithm: KDFSHA256}, nil
	case KDFPBKDF2:
		return KDFParams{Algorithm: KDFPBKDF2, Iterations: DefaultIterations}, nil
	case KDFScrypt:
		return KDFParams{Algorithm: KDFScrypt, N: ScryptN, R: ScryptR, P: ScryptP}, nil
	case KDFArgon2:
		return KDFParams{
			Algorithm:  KDFArgon2,
			Iterations: Argon2Time,
			MemoryKB:   Argon2MemoryKB,
			Threads:    Argon2Threads,
		}, nil
	default:
		return KDFParams{}, fmt.Errorf("%w: %s", ErrUnsupportedKDF, algorithm)
	}
}

// Slow reports whether the algorithm is deliberately expensive.
func (k KDFParams) Slow() bool {
	return k.Algorithm != "" && k.Algorithm != KDFSHA256
}

// NormalizePassword maps a password to Unicode NFKC so that visually
// identical input typed on different platforms derives the same key.
func NormalizePassword(password string) string {
	return norm.NFKC.String(password)
}

// Resolved fills zero cost fields with the package defaults.
func (k KDFParams) Resolved() KDFParams {
	switch k.Algorithm {
	case KDFPBKDF2:
		if k.Iterations == 0 {
			k.Iterations = DefaultIterations
		}
	case KDFScrypt:
		if k.N == 0 && k.R == 0 && k.P == 0 {
			k.N, k.R, k.P = ScryptN, ScryptR, ScryptP
		}
	case KDFArgon2:
		if k.Iterations == 0 {
			k.Iterations = Argon2Time
		}
		if k.MemoryKB == 0 {
			k.MemoryKB = Argon2MemoryKB
		}
		if k.Threads == 0 {
			k.Threads = Argon2Threads
		}
	}
	return k
}

// Validate checks the resolved cost parameters against the accepted
// ranges. Parameters come from stored envelopes and are untrusted.
func (k KDFParams) Validate() error {
	r := k.Resolved()

	switch r.Algorithm {
	case "", KDFSHA256:
		return nil

	case KDFPBKDF2:
		if r.Iterations < MinIterations || r.Iterations > MaxIterations {
			return fmt.Errorf("%w: pbkdf2 iterations %d", ErrInvalidKDFParams, r.Iterations)
		}

	case KDFScrypt:
		if r.N <= 1 || r.N > MaxScryptN || r.N&(r.N-1) != 0 {
			return fmt.Errorf("%w: scrypt N %d", ErrInvalidKDFParams, r.N)
		}
		if r.R < 1 || r.R > MaxScryptR || r.P < 1 || r.P > MaxScryptP {
			return fmt.Errorf("%w: scrypt r %d p %d", ErrInvalidKDFParams, r.R, r.P)
		}

	case KDFArgon2:
		if r.Iterations < 1 || r.Iterations > MaxArgon2Time {
			return fmt.Errorf("%w: argon2 time %d", ErrInvalidKDFParams, r.Iterations)
		}
		if r.Threads < 1 || r.Threads > MaxArgon2Threads {
			return fmt.Errorf("%w: argon2 threads %d", ErrInvalidKDFParams, r.Threads)
		}
		if r.MemoryKB < minArgon2MemPerLane*uint32(r.Threads) || r.MemoryKB > MaxArgon2MemoryKB {
			return fmt.Errorf("%w: argon2 memory %d KiB", ErrInvalidKDFParams, r.MemoryKB)
		}

	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKDF, r.Algorithm)
	}

	return nil
}

// DeriveKey turns a password and salt into KeySize bytes of key material.
// The result is deterministic for the same password, salt and params.
func DeriveKey(password string, salt []byte, params KDFParams) ([]byte, error) {
	if len(salt) < SaltSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSalt, len(salt))
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	params = params.Resolved()

	secret := []byte(NormalizePassword(password))
	defer Zero(secret)

	switch params.Algorithm {
	case KDFPBKDF2:
		return pbkdf2.Key(secret, salt, params.Iterations, KeySize, sha256.New), nil

	case KDFScrypt:
		key, err := scrypt.Key(secret, salt, params.N, params.R, params.P, KeySize)
		if err != nil {
			return nil, fmt.Errorf("scrypt key derivation: %w", err)
		}
		return key, nil

	case KDFArgon2:
		return argon2.IDKey(secret, salt, uint32(params.Iterations), params.MemoryKB, params.Threads, KeySize), nil

	default:
		return digestKey(secret, salt), nil
	}
}

// digestKey is SHA-256(password || salt).
func digestKey(password, salt []byte) []byte {
	h := sha256.New()
	h.Write(password)
	h.Write(salt)
	return h.Sum(nil)
}
