// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/TheQuangNguyen/DevConnector-Project/internal/auth"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/logging"
	"github.com/TheQuangNguyen/DevConnector-Project/pkg/errutil"
)

// Client-facing messages produced by this package.
const (
	msgInvalidBody = "Invalid request body"
	msgNoToken     = "No token, authorization denied"
	msgServerError = "Server Error"
)

// errorBody is the JSON error envelope: {"errors":[{"msg":...}, ...]}.
type errorBody struct {
	Errors []auth.FieldError `json:"errors"`
}

// publicMessages are the fixed bodies of the non-validation client errors.
var publicMessages = map[string]string{
	auth.CodeValidation:         msgInvalidBody,
	auth.CodeDuplicateUser:      auth.MsgDuplicateUser,
	auth.CodeInvalidCredentials: auth.MsgInvalidCredentials,
	auth.CodeAuth:               auth.MsgTokenInvalid,
}

func singleError(msg string) errorBody {
	return errorBody{Errors: []auth.FieldError{{Msg: msg}}}
}

// statusFor maps a public error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case auth.CodeValidation, auth.CodeDuplicateUser, auth.CodeInvalidCredentials:
		return http.StatusBadRequest
	case auth.CodeAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Internal errors are logged with full detail and
// reach the client only as "Server Error".
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := auth.PublicCode(err)
	status := statusFor(code)

	var body errorBody
	var verr *auth.ValidationError
	switch {
	case code == auth.CodeValidation && errors.As(err, &verr):
		body = errorBody{Errors: verr.Fields}
	case status == http.StatusInternalServerError:
		errutil.LogErrorContext(r.Context(), logging.FromContext(r.Context()), "request failed", err)
		body = singleError(msgServerError)
	default:
		body = singleError(publicMessages[code])
	}

	respondJSON(w, r, status, body)
}

// respondJSON writes payload as JSON with the given status. HTML characters
// are not escaped, so URLs such as avatarUrl appear as stored.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		errutil.LogErrorContext(r.Context(), logging.FromContext(r.Context()), "encode response", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errors":[{"msg":"Server Error"}]}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
