// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 100 * time.Hour

// Claims is the signed token payload: {"user":{"id":...},"iat":...,"exp":...}.
type Claims struct {
	User TokenUser `json:"user"`
	jwt.RegisteredClaims
}

// TokenUser identifies the token subject.
type TokenUser struct {
	ID string `json:"id"`
}

// TokenIssuer signs and verifies HS256 session tokens.
// TokenIssuer is immutable after construction and safe for concurrent use.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customizes a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		t.now = now
	}
}

// NewTokenIssuer creates a TokenIssuer signing with secret. Tokens expire ttl
// after issuance.
func NewTokenIssuer(secret string, ttl time.Duration, opts ...TokenOption) (*TokenIssuer, error) {
	if secret == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("token signing secret is required")
	}
	if ttl <= 0 {
		return nil, oops.Code("CONFIG_INVALID").With("ttl", ttl.String()).Errorf("token ttl must be positive")
	}

	t := &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Issue returns a signed token for userID.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	if userID == "" {
		return "", oops.Code(CodeInternal).Errorf("cannot issue token without user id")
	}

	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		User: TokenUser{ID: userID},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", oops.Code(CodeInternal).With("operation", "sign token").Wrap(err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns the embedded
// user id. Every failure returns the same AUTH_ERROR.
func (t *TokenIssuer) Verify(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid || claims.User.ID == "" {
		return "", invalidToken()
	}
	return claims.User.ID, nil
}

func invalidToken() error {
	return oops.Code(CodeAuth).Errorf("%s", MsgTokenInvalid)
}
