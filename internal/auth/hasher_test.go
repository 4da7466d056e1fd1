// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/TheQuangNguyen/DevConnector-Project/internal/auth"
	"github.com/TheQuangNguyen/DevConnector-Project/pkg/errutil"
)

func testHashers(t *testing.T) map[string]auth.PasswordHasher {
	t.Helper()
	bcryptHasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return map[string]auth.PasswordHasher{
		auth.HasherBcrypt:   bcryptHasher,
		auth.HasherArgon2id: auth.NewArgon2idHasher(),
	}
}

func TestPasswordHasher_Hash(t *testing.T) {
	for name, hasher := range testHashers(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("same password produces different hashes (salt)", func(t *testing.T) {
				hash1, err := hasher.Hash("samepassword")
				require.NoError(t, err)
				hash2, err := hasher.Hash("samepassword")
				require.NoError(t, err)
				assert.NotEqual(t, hash1, hash2)
			})

			t.Run("hash never equals plaintext", func(t *testing.T) {
				hash, err := hasher.Hash("secret1")
				require.NoError(t, err)
				assert.NotEqual(t, "secret1", hash)
				assert.NotContains(t, hash, "secret1")
			})

			t.Run("rejects empty password", func(t *testing.T) {
				_, err := hasher.Hash("")
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "AUTH_EMPTY_PASSWORD")
			})
		})
	}
}

func TestPasswordHasher_Verify(t *testing.T) {
	for name, hasher := range testHashers(t) {
		t.Run(name, func(t *testing.T) {
			hash, err := hasher.Hash("correctpassword")
			require.NoError(t, err)

			t.Run("correct password verifies", func(t *testing.T) {
				ok, err := hasher.Verify("correctpassword", hash)
				require.NoError(t, err)
				assert.True(t, ok)
			})

			t.Run("incorrect password fails without error", func(t *testing.T) {
				ok, err := hasher.Verify("wrongpassword", hash)
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("malformed hash is an error", func(t *testing.T) {
				_, err := hasher.Verify("correctpassword", "not-a-hash")
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
			})
		})
	}
}

func TestBcryptHasher_Format(t *testing.T) {
	hasher, err := auth.NewBcryptHasher(0)
	require.NoError(t, err)

	hash, err := hasher.Hash("password123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$10$"), "default cost should be 10, got %s", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultBcryptCost, cost)
}

func TestBcryptHasher_VerifiesExistingHashes(t *testing.T) {
	// Hashes written by other bcrypt implementations use the $2a$/$2b$ prefix.
	hash, err := bcrypt.GenerateFromPassword([]byte("legacy-password"), bcrypt.MinCost)
	require.NoError(t, err)

	hasher, err := auth.NewBcryptHasher(0)
	require.NoError(t, err)
	ok, err := hasher.Verify("legacy-password", string(hash))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBcryptHasher_OverlongPasswordDoesNotMatch(t *testing.T) {
	h, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	hash, err := h.Hash(strings.Repeat("a", auth.MaxPasswordBytes))
	require.NoError(t, err)

	ok, err := h.Verify(strings.Repeat("a", auth.MaxPasswordBytes+1), hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Verify(strings.Repeat("a", auth.MaxPasswordBytes+1), "not-a-hash")
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
}

func TestNewBcryptHasher_InvalidCost(t *testing.T) {
	_, err := auth.NewBcryptHasher(bcrypt.MaxCost + 1)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_COST")
}

func TestArgon2idHasher_Format(t *testing.T) {
	hash, err := auth.NewArgon2idHasher().Hash("password123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$"))
	assert.Len(t, strings.Split(hash, "$"), 6)
}

func TestArgon2idHasher_RejectsTamperedParameters(t *testing.T) {
	hasher := auth.NewArgon2idHasher()
	tests := []struct {
		name string
		hash string
	}{
		{"wrong algorithm", "$argon2i$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
		{"bad version", "$argon2id$v=x$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
		{"threads overflow", "$argon2id$v=19$m=65536,t=1,p=256$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=1,p=4$!!!$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
		{"empty key", "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := hasher.Verify("password", tt.hash)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
		})
	}
}

func TestNewPasswordHasher(t *testing.T) {
	h, err := auth.NewPasswordHasher("", 0)
	require.NoError(t, err)
	assert.IsType(t, &auth.BcryptHasher{}, h)

	h, err = auth.NewPasswordHasher(auth.HasherArgon2id, 0)
	require.NoError(t, err)
	assert.IsType(t, &auth.Argon2idHasher{}, h)

	_, err = auth.NewPasswordHasher("md5", 0)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "AUTH_UNKNOWN_HASHER")
}
