// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// TokenService issues and verifies session tokens.
type TokenService interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

// Service provides registration, login and current-user lookup.
type Service struct {
	users     UserRepository
	hasher    PasswordHasher
	tokens    TokenService
	validator *inputValidator
	logger    *slog.Logger

	// dummyHash is verified against when the email is unknown so that both
	// login failure paths cost one hash verification.
	dummyHash string
}

// ServiceOption customizes a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	minPasswordLength int
	logger            *slog.Logger
}

// WithMinPasswordLength sets the registration password policy.
func WithMinPasswordLength(n int) ServiceOption {
	return func(o *serviceOptions) {
		o.minPasswordLength = n
	}
}

// WithLogger sets the logger used for anomalies the caller cannot see.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewAuthService creates a new Service.
func NewAuthService(users UserRepository, hasher PasswordHasher, tokens TokenService, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("token service is required")
	}

	o := serviceOptions{
		minPasswordLength: DefaultMinPasswordLength,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("logger cannot be nil")
	}

	iv, err := newInputValidator(o.minPasswordLength)
	if err != nil {
		return nil, err
	}

	dummyHash, err := makeDummyHash(hasher)
	if err != nil {
		return nil, err
	}

	return &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		validator: iv,
		logger:    o.logger,
		dummyHash: dummyHash,
	}, nil
}

// makeDummyHash hashes a random throwaway password that no login can match.
func makeDummyHash(hasher PasswordHasher) (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", oops.Code(CodeInternal).With("operation", "generate dummy password").Wrap(err)
	}
	hash, err := hasher.Hash(hex.EncodeToString(raw))
	if err != nil {
		return "", oops.Code(CodeInternal).With("operation", "hash dummy password").Wrap(err)
	}
	return hash, nil
}

// Register creates a user and returns a token for it.
func (s *Service) Register(ctx context.Context, in Registration) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)

	if err := s.validator.checkRegistration(in); err != nil {
		return "", err
	}

	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return "", duplicateUser(in.Email)
	case !errors.Is(err, ErrNotFound):
		return "", oops.Code(CodeInternal).
			With("operation", "look up user by email").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", oops.Code(CodeInternal).
			With("operation", "hash password").
			Wrap(err)
	}

	user := &User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		AvatarURL:    AvatarURL(in.Email),
	}

	// A concurrent registration may win between the lookup and the insert;
	// the store's uniqueness constraint reports it as ErrDuplicateEmail.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return "", duplicateUser(in.Email)
		}
		return "", oops.Code(CodeInternal).
			With("operation", "create user").
			Wrap(err)
	}

	return s.issue(user.ID)
}

// Login verifies credentials and returns a token.
// Unknown emails and wrong passwords fail with the same INVALID_CREDENTIALS error.
func (s *Service) Login(ctx context.Context, in Credentials) (string, error) {
	in.Email = NormalizeEmail(in.Email)

	if err := s.validator.checkCredentials(in); err != nil {
		return "", err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", oops.Code(CodeInternal).
			With("operation", "look up user by email").
			Wrap(err)
	}

	targetHash := s.dummyHash
	if user != nil {
		targetHash = user.PasswordHash
	}

	valid, err := s.hasher.Verify(in.Password, targetHash)
	if err != nil {
		return "", oops.Code(CodeInternal).
			With("operation", "verify password").
			Wrap(err)
	}
	if user == nil || !valid {
		return "", invalidCredentials()
	}

	return s.issue(user.ID)
}

// CurrentUser returns the user identified by a verified token subject.
// A well-formed id without a stored user is a store inconsistency and
// fails with INTERNAL_ERROR.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*User, error) {
	id, err := ulid.ParseStrict(userID)
	if err != nil {
		return nil, oops.Code(CodeAuth).With("user_id", userID).Errorf("%s", MsgTokenInvalid)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "token subject has no user record", "user_id", userID)
		}
		return nil, oops.Code(CodeInternal).
			With("operation", "get user by id").
			With("user_id", userID).
			Wrap(err)
	}
	return user, nil
}

// VerifyToken returns the user id carried by a valid token.
func (s *Service) VerifyToken(token string) (string, error) {
	return s.tokens.Verify(token)
}

func (s *Service) issue(id ulid.ULID) (string, error) {
	token, err := s.tokens.Issue(id.String())
	if err != nil {
		return "", oops.Code(CodeInternal).
			With("operation", "issue token").
			With("user_id", id.String()).
			Wrap(err)
	}
	return token, nil
}

func duplicateUser(email string) error {
	return oops.Code(CodeDuplicateUser).With("email", email).Errorf("%s", MsgDuplicateUser)
}

func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("%s", MsgInvalidCredentials)
}
