// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// User is a registered account.
type User struct {
	ID           ulid.ULID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	AvatarURL    string    `json:"avatarUrl"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserRepository persists users.
type UserRepository interface {
	// Create stores a new user. It assigns user.ID and user.CreatedAt.
	// Returns an error wrapping ErrDuplicateEmail if the email is taken.
	Create(ctx context.Context, user *User) error

	// GetByID returns the user with the given ID or an error wrapping ErrNotFound.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail returns the user with the given email (case-insensitive)
	// or an error wrapping ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
