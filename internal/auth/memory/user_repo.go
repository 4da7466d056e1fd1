// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

// Package memory provides an in-process auth.UserRepository for local
// development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/TheQuangNguyen/DevConnector-Project/internal/auth"
)

// UserRepository implements auth.UserRepository in memory.
// Email uniqueness is enforced under the same lock as the insert.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]*auth.User
	byEmail map[string]ulid.ULID
	now     func() time.Time
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[ulid.ULID]*auth.User),
		byEmail: make(map[string]ulid.ULID),
		now:     time.Now,
	}
}

// Create stores a new user, assigning its ID and creation time.
func (r *UserRepository) Create(_ context.Context, user *auth.User) error {
	key := auth.NormalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[key]; taken {
		return oops.Code("USER_EMAIL_TAKEN").
			With("email", key).
			Wrap(auth.ErrDuplicateEmail)
	}

	user.ID = ulid.Make()
	user.CreatedAt = r.now().UTC()

	stored := *user
	r.byID[stored.ID] = &stored
	r.byEmail[key] = stored.ID
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	out := *u
	return &out, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	key := auth.NormalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[key]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", key).
			Wrap(auth.ErrNotFound)
	}
	out := *r.byID[id]
	return &out, nil
}

// Delete removes a user. Deleting an unknown ID is not an error.
func (r *UserRepository) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byID[id]; ok {
		delete(r.byEmail, auth.NormalizeEmail(u.Email))
		delete(r.byID, id)
	}
	return nil
}

// Ping always succeeds; it lets the repository serve as a readiness check.
func (r *UserRepository) Ping(context.Context) error {
	return nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
