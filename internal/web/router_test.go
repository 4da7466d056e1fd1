// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/TheQuangNguyen/DevConnector-Project/internal/auth"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/auth/memory"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/observability"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/web"
)

type apiEnv struct {
	handler http.Handler
	metrics *observability.Metrics
	users   *memory.UserRepository
	logs    *bytes.Buffer
}

func newAPI(t *testing.T) apiEnv {
	t.Helper()
	users := memory.NewUserRepository()
	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenIssuer("web-test-secret", auth.DefaultTokenTTL)
	require.NoError(t, err)
	svc, err := auth.NewAuthService(users, hasher, tokens)
	require.NoError(t, err)
	return newAPIWith(t, svc, users)
}

func newAPIWith(t *testing.T, svc web.AuthService, users *memory.UserRepository) apiEnv {
	t.Helper()
	logs := &bytes.Buffer{}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	handler, err := web.NewRouter(web.RouterConfig{
		Service:     svc,
		Metrics:     metrics,
		Logger:      slog.New(slog.NewJSONHandler(logs, nil)),
		CORSOrigins: []string{"http://localhost:3000"},
	})
	require.NoError(t, err)
	return apiEnv{handler: handler, metrics: metrics, users: users, logs: logs}
}

type response struct {
	Status int
	Body   map[string]any
	Raw    string
}

func (e apiEnv) do(t *testing.T, method, path, body string, headers map[string]string) response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	out := response{Status: rec.Code, Raw: rec.Body.String()}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out.Body), "body: %s", rec.Body.String())
	}
	return out
}

func errorMsgs(t *testing.T, r response) []string {
	t.Helper()
	raw, ok := r.Body["errors"].([]any)
	require.True(t, ok, "expected errors array in %s", r.Raw)
	msgs := make([]string, 0, len(raw))
	for _, e := range raw {
		msgs = append(msgs, e.(map[string]any)["msg"].(string))
	}
	return msgs
}

func TestAPI_RegisterLoginCurrentUserScenario(t *testing.T) {
	api := newAPI(t)

	reg := api.do(t, http.MethodPost, "/api/users", `{"name":"A","email":"a@x.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusOK, reg.Status, reg.Raw)
	require.NotEmpty(t, reg.Body["token"])

	dup := api.do(t, http.MethodPost, "/api/users", `{"name":"A","email":"a@x.com","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, dup.Status)
	assert.JSONEq(t, `{"errors":[{"msg":"User already exists"}]}`, dup.Raw)

	wrong := api.do(t, http.MethodPost, "/api/auth", `{"email":"a@x.com","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusBadRequest, wrong.Status)
	assert.JSONEq(t, `{"errors":[{"msg":"Invalid Credentials"}]}`, wrong.Raw)

	unknown := api.do(t, http.MethodPost, "/api/auth", `{"email":"nobody@x.com","password":"secret1"}`, nil)
	assert.Equal(t, wrong.Status, unknown.Status)
	assert.Equal(t, wrong.Raw, unknown.Raw, "unknown email and wrong password must be indistinguishable")

	login := api.do(t, http.MethodPost, "/api/auth", `{"email":"a@x.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusOK, login.Status, login.Raw)
	token, ok := login.Body["token"].(string)
	require.True(t, ok)

	me := api.do(t, http.MethodGet, "/api/auth", "", map[string]string{web.TokenHeader: token})
	require.Equal(t, http.StatusOK, me.Status, me.Raw)
	assert.Equal(t, "A", me.Body["name"])
	assert.Equal(t, "a@x.com", me.Body["email"])
	assert.Equal(t, auth.AvatarURL("a@x.com"), me.Body["avatarUrl"])
	assert.NotEmpty(t, me.Body["id"])
	assert.NotEmpty(t, me.Body["createdAt"])
	assert.NotContains(t, strings.ToLower(me.Raw), "password")
	assert.Contains(t, me.Raw, `"avatarUrl":"`+auth.AvatarURL("a@x.com")+`"`, "avatar URL should not be HTML-escaped")
	assert.NotContains(t, me.Raw, `\u0026`)

	assert.InDelta(t, 1, testutil.ToFloat64(api.metrics.AuthOutcomesTotal.WithLabelValues(observability.OpRegister, observability.OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(api.metrics.AuthOutcomesTotal.WithLabelValues(observability.OpRegister, observability.OutcomeRejected)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(api.metrics.AuthOutcomesTotal.WithLabelValues(observability.OpLogin, observability.OutcomeRejected)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(api.metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/auth", "200")), 0)
}

func TestAPI_RegisterValidation(t *testing.T) {
	api := newAPI(t)

	r := api.do(t, http.MethodPost, "/api/users", `{"name":"","email":"bad","password":"123"}`, nil)
	require.Equal(t, http.StatusBadRequest, r.Status)
	assert.JSONEq(t, `{"errors":[
		{"msg":"Name is required","param":"name","location":"body"},
		{"msg":"Please include a valid email","param":"email","value":"bad","location":"body"},
		{"msg":"Please enter a password with 6 or more characters","param":"password","location":"body"}
	]}`, r.Raw)

	_, err := api.users.GetByEmail(context.Background(), "bad")
	assert.ErrorIs(t, err, auth.ErrNotFound, "nothing is stored on validation failure")
}

func TestAPI_LoginValidation(t *testing.T) {
	api := newAPI(t)

	r := api.do(t, http.MethodPost, "/api/auth", `{"email":"a@x.com"}`, nil)
	require.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, []string{"Password is required"}, errorMsgs(t, r))
}

func TestAPI_MalformedBody(t *testing.T) {
	api := newAPI(t)

	for _, body := range []string{"", "{", `{"email": 5}`, `[]`} {
		for _, path := range []string{"/api/users", "/api/auth"} {
			r := api.do(t, http.MethodPost, path, body, nil)
			assert.Equal(t, http.StatusBadRequest, r.Status, "%s %q", path, body)
			assert.JSONEq(t, `{"errors":[{"msg":"Invalid request body"}]}`, r.Raw, "%s %q", path, body)
		}
	}
}

func TestAPI_CurrentUserTokenHandling(t *testing.T) {
	api := newAPI(t)
	reg := api.do(t, http.MethodPost, "/api/users", `{"name":"A","email":"a@x.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusOK, reg.Status)
	token := reg.Body["token"].(string)

	t.Run("missing token", func(t *testing.T) {
		r := api.do(t, http.MethodGet, "/api/auth", "", nil)
		assert.Equal(t, http.StatusUnauthorized, r.Status)
		assert.JSONEq(t, `{"errors":[{"msg":"No token, authorization denied"}]}`, r.Raw)
	})

	t.Run("invalid token", func(t *testing.T) {
		r := api.do(t, http.MethodGet, "/api/auth", "", map[string]string{web.TokenHeader: token + "x"})
		assert.Equal(t, http.StatusUnauthorized, r.Status)
		assert.JSONEq(t, `{"errors":[{"msg":"Token is not valid"}]}`, r.Raw)
	})

	t.Run("bearer header accepted", func(t *testing.T) {
		r := api.do(t, http.MethodGet, "/api/auth", "", map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusOK, r.Status, r.Raw)
	})

	t.Run("other authorization schemes ignored", func(t *testing.T) {
		r := api.do(t, http.MethodGet, "/api/auth", "", map[string]string{"Authorization": "Basic " + token})
		assert.Equal(t, http.StatusUnauthorized, r.Status)
	})

	t.Run("deleted user is a server error", func(t *testing.T) {
		user, err := api.users.GetByEmail(context.Background(), "a@x.com")
		require.NoError(t, err)
		require.NoError(t, api.users.Delete(context.Background(), user.ID))

		r := api.do(t, http.MethodGet, "/api/auth", "", map[string]string{web.TokenHeader: token})
		assert.Equal(t, http.StatusInternalServerError, r.Status)
		assert.JSONEq(t, `{"errors":[{"msg":"Server Error"}]}`, r.Raw)
		assert.Contains(t, api.logs.String(), "request failed")
	})
}

func TestAPI_InternalErrorsAreGeneric(t *testing.T) {
	svc := &mockService{}
	svc.On("Register", mock.Anything, mock.Anything).
		Return("", errors.New("pq: connection refused to 10.0.0.5")).Once()
	api := newAPIWith(t, svc, nil)

	r := api.do(t, http.MethodPost, "/api/users", `{"name":"A","email":"a@x.com","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, r.Status)
	assert.JSONEq(t, `{"errors":[{"msg":"Server Error"}]}`, r.Raw)
	assert.NotContains(t, r.Raw, "10.0.0.5")
	assert.Contains(t, api.logs.String(), "10.0.0.5", "detail is logged server-side")
	assert.InDelta(t, 1, testutil.ToFloat64(api.metrics.AuthOutcomesTotal.WithLabelValues(observability.OpRegister, observability.OutcomeError)), 0)
	svc.AssertExpectations(t)
}

func TestAPI_PanicRecovered(t *testing.T) {
	svc := &mockService{}
	svc.On("Login", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("boom") }).Once()
	api := newAPIWith(t, svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth", strings.NewReader(`{"email":"a@x.com","password":"x"}`))
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAPI_NotFoundAndMethodNotAllowed(t *testing.T) {
	api := newAPI(t)

	r := api.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, r.Status)

	r = api.do(t, http.MethodDelete, "/api/auth", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, r.Status)
}

func TestAPI_CORS(t *testing.T) {
	api := newAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", web.TokenHeader)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers")), web.TokenHeader)

	req = httptest.NewRequest(http.MethodOptions, "/api/auth", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPI_RequestLogCarriesRequestID(t *testing.T) {
	api := newAPI(t)
	api.do(t, http.MethodPost, "/api/auth", `{"email":"a@x.com","password":"x"}`, nil)

	var entry map[string]any
	line, _, _ := strings.Cut(api.logs.String(), "\n")
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.NotEmpty(t, entry["request_id"])
	assert.Equal(t, "/api/auth", entry["route"])
	assert.InDelta(t, 400, entry["status"], 0)
}

func TestNewRouter_RequiresDependencies(t *testing.T) {
	_, err := web.NewRouter(web.RouterConfig{Metrics: observability.NewMetrics(prometheus.NewRegistry())})
	assert.Error(t, err)

	_, err = web.NewRouter(web.RouterConfig{Service: &mockService{}})
	assert.Error(t, err)
}

type mockService struct {
	mock.Mock
}

func (m *mockService) Register(ctx context.Context, in auth.Registration) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *mockService) Login(ctx context.Context, in auth.Credentials) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

func (m *mockService) CurrentUser(ctx context.Context, userID string) (*auth.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *mockService) VerifyToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}
