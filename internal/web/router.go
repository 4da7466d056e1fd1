// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

// Package web serves the DevConnector auth API over HTTP.
package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/samber/oops"

	"github.com/TheQuangNguyen/DevConnector-Project/internal/observability"
)

// Route paths.
const (
	apiBasePath   = "/api"
	usersBasePath = "/users"
	authBasePath  = "/auth"
)

// RouterConfig holds the router's dependencies.
type RouterConfig struct {
	Service     AuthService
	Metrics     *observability.Metrics
	Logger      *slog.Logger
	CORSOrigins []string
}

// NewRouter builds the API handler.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	if cfg.Service == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("auth service is required")
	}
	if cfg.Metrics == nil {
		return nil, oops.Code("CONFIG_INVALID").Errorf("metrics are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &handlers{svc: cfg.Service, metrics: cfg.Metrics}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(traceRequests)
	r.Use(logRequests(logger))
	r.Use(countRequests(cfg.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", TokenHeader},
		MaxAge:         300,
	}))

	r.Route(apiBasePath, func(r chi.Router) {
		r.Post(usersBasePath, makeHandler(h.register))
		r.Post(authBasePath, makeHandler(h.login))
		r.With(RequireToken(cfg.Service)).Get(authBasePath, makeHandler(h.currentUser))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusNotFound, singleError("Not Found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusMethodNotAllowed, singleError("Method Not Allowed"))
	})

	return r, nil
}
