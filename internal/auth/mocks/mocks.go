// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

// Package mocks provides testify mocks for auth interfaces.
package mocks

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/TheQuangNguyen/DevConnector-Project/internal/auth"
)

// testingT is the subset of *testing.T the constructors need.
type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockUserRepository mocks auth.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a MockUserRepository that asserts its
// expectations when the test ends.
func NewMockUserRepository(t testingT) *MockUserRepository {
	m := &MockUserRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create records the call and returns the configured error.
func (m *MockUserRepository) Create(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// GetByID records the call and returns the configured user and error.
func (m *MockUserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

// GetByEmail records the call and returns the configured user and error.
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

// MockPasswordHasher mocks auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher that asserts its
// expectations when the test ends.
func NewMockPasswordHasher(t testingT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Hash records the call and returns the configured hash and error.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// Verify records the call and returns the configured result and error.
func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

// MockTokenService mocks auth.TokenService.
type MockTokenService struct {
	mock.Mock
}

// NewMockTokenService creates a MockTokenService that asserts its
// expectations when the test ends.
func NewMockTokenService(t testingT) *MockTokenService {
	m := &MockTokenService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Issue records the call and returns the configured token and error.
func (m *MockTokenService) Issue(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

// Verify records the call and returns the configured user id and error.
func (m *MockTokenService) Verify(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

var (
	_ auth.UserRepository = (*MockUserRepository)(nil)
	_ auth.PasswordHasher = (*MockPasswordHasher)(nil)
	_ auth.TokenService   = (*MockTokenService)(nil)
)
