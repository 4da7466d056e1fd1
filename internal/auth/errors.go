// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned by repositories when the email uniqueness
// constraint rejects an insert.
var ErrDuplicateEmail = errors.New("email already registered")

// Public error codes. Every failure returned by Service carries one of these.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeDuplicateUser      = "DUPLICATE_USER"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAuth               = "AUTH_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
)

// Client-facing messages for the codes above.
const (
	MsgDuplicateUser      = "User already exists"
	MsgInvalidCredentials = "Invalid Credentials"
	MsgTokenInvalid       = "Token is not valid"
)

// PublicCode returns the client-facing code for err. Codes other than the
// four client errors, and errors without a code, report CodeInternal.
func PublicCode(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return CodeInternal
	}
	code, _ := any(oopsErr.Code()).(string)
	switch code {
	case CodeValidation, CodeDuplicateUser, CodeInvalidCredentials, CodeAuth:
		return code
	default:
		return CodeInternal
	}
}
