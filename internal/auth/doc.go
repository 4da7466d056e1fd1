// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

// Package auth provides registration, login and token primitives for DevConnector.
//
// # Domain Types
//
// A User is created by a UserRepository, which assigns its ID and creation
// time. Services hand repositories a User whose name and email have already
// been normalized and validated, and whose password has already been hashed.
//
// # Services
//
// Service coordinates the three operations exposed over HTTP:
//   - Register - validate input, reject duplicate emails, hash, persist, issue a token
//   - Login - validate input, verify credentials, issue a token
//   - CurrentUser - resolve the user behind a verified token
//
// Failures carry one of the public error codes declared in errors.go; the
// web layer maps those codes to HTTP statuses.
package auth
