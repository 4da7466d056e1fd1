// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/samber/oops"

	"github.com/TheQuangNguyen/DevConnector-Project/internal/auth"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/observability"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// AuthService is the auth behavior the HTTP layer depends on.
type AuthService interface {
	Register(ctx context.Context, in auth.Registration) (string, error)
	Login(ctx context.Context, in auth.Credentials) (string, error)
	CurrentUser(ctx context.Context, userID string) (*auth.User, error)
	VerifyToken(token string) (string, error)
}

// AppHandler is an HTTP handler that returns its failure instead of
// writing it.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// makeHandler adapts an AppHandler, rendering any returned error.
func makeHandler(h AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			writeError(w, r, err)
		}
	}
}

type tokenResponse struct {
	Token string `json:"token"`
}

type handlers struct {
	svc     AuthService
	metrics *observability.Metrics
}

// register handles POST /api/users.
func (h *handlers) register(w http.ResponseWriter, r *http.Request) error {
	var in auth.Registration
	if err := decodeBody(w, r, &in); err != nil {
		return err
	}

	token, err := h.svc.Register(r.Context(), in)
	h.record(observability.OpRegister, err)
	if err != nil {
		return err
	}
	respondJSON(w, r, http.StatusOK, tokenResponse{Token: token})
	return nil
}

// login handles POST /api/auth.
func (h *handlers) login(w http.ResponseWriter, r *http.Request) error {
	var in auth.Credentials
	if err := decodeBody(w, r, &in); err != nil {
		return err
	}

	token, err := h.svc.Login(r.Context(), in)
	h.record(observability.OpLogin, err)
	if err != nil {
		return err
	}
	respondJSON(w, r, http.StatusOK, tokenResponse{Token: token})
	return nil
}

// currentUser handles GET /api/auth. RequireToken has already run.
func (h *handlers) currentUser(w http.ResponseWriter, r *http.Request) error {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return oops.Code(auth.CodeInternal).Errorf("current user route reached without a verified token")
	}

	user, err := h.svc.CurrentUser(r.Context(), userID)
	h.record(observability.OpCurrentUser, err)
	if err != nil {
		return err
	}
	respondJSON(w, r, http.StatusOK, user)
	return nil
}

func (h *handlers) record(operation string, err error) {
	outcome := observability.OutcomeSuccess
	if err != nil {
		outcome = observability.OutcomeRejected
		if auth.PublicCode(err) == auth.CodeInternal {
			outcome = observability.OutcomeError
		}
	}
	h.metrics.RecordAuth(operation, outcome)
}

// decodeBody reads a JSON object into dst. Any decoding failure is a
// VALIDATION_ERROR with the single message "Invalid request body".
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return oops.Code(auth.CodeValidation).
			With("operation", "decode request body").
			Wrap(&auth.ValidationError{Fields: []auth.FieldError{{Msg: msgInvalidBody}}})
	}
	return nil
}
