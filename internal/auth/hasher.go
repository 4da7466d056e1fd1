// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported hasher names for configuration.
const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

// DefaultBcryptCost matches the cost the original deployment stored hashes with.
const DefaultBcryptCost = 10

// MaxPasswordBytes is the longest password bcrypt consumes.
const MaxPasswordBytes = 72

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides salted one-way password hashing.
type PasswordHasher interface {
	// Hash produces a salted hash of the password. Two calls with the same
	// password return different strings.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(password, hash string) (bool, error)
}

// NewPasswordHasher returns the hasher registered under name.
// bcryptCost is ignored for argon2id; zero selects DefaultBcryptCost.
func NewPasswordHasher(name string, bcryptCost int) (PasswordHasher, error) {
	switch name {
	case "", HasherBcrypt:
		return NewBcryptHasher(bcryptCost)
	case HasherArgon2id:
		return NewArgon2idHasher(), nil
	default:
		return nil, oops.Code("AUTH_UNKNOWN_HASHER").With("hasher", name).Errorf("unknown password hasher %q", name)
	}
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher. Zero cost selects DefaultBcryptCost.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, oops.Code("AUTH_INVALID_COST").
			With("cost", cost).
			Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").With("algorithm", HasherBcrypt).Wrap(err)
	}
	return string(hash), nil
}

// Verify checks if the password matches a bcrypt hash. Passwords longer than
// MaxPasswordBytes can never have been hashed and do not match.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	if len(password) > MaxPasswordBytes {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return false, oops.Code("AUTH_INVALID_HASH").With("algorithm", HasherBcrypt).Wrap(err)
		}
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("AUTH_INVALID_HASH").With("algorithm", HasherBcrypt).Wrap(err)
	}
}

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// Argon2idHasher implements PasswordHasher using argon2id with PHC-encoded output.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id hash of the password in the form
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	p := argon2Params{memory: argon2Memory, time: argon2Time, threads: argon2Threads, salt: salt}
	p.key = argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, argon2KeyLen)
	return p.encode(), nil
}

// Verify checks if the password matches an argon2id hash.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	p, err := decodeArgon2Params(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(computed, p.key) == 1, nil
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func (p argon2Params) encode() string {
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory,
		p.time,
		p.threads,
		base64.RawStdEncoding.EncodeToString(p.salt),
		base64.RawStdEncoding.EncodeToString(p.key),
	)
}

func decodeArgon2Params(encoded string) (argon2Params, error) {
	invalid := oops.Code("AUTH_INVALID_HASH").With("algorithm", HasherArgon2id)

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return argon2Params{}, invalid.Errorf("invalid hash format")
	}
	if parts[1] != HasherArgon2id {
		return argon2Params{}, invalid.Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return argon2Params{}, invalid.Wrap(err)
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return argon2Params{}, invalid.Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return argon2Params{}, invalid.Errorf("threads value %d out of range", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argon2Params{}, invalid.Wrap(err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argon2Params{}, invalid.Wrap(err)
	}
	if len(key) == 0 || len(key) > 1<<10 {
		return argon2Params{}, invalid.Errorf("invalid hash key length: %d", len(key))
	}

	return argon2Params{
		memory:  memory,
		time:    iterations,
		threads: uint8(threads),
		salt:    salt,
		key:     key,
	}, nil
}
