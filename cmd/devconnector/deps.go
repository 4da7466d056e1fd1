// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package main

import (
	"context"
	"net/http"

	"github.com/TheQuangNguyen/DevConnector-Project/internal/auth"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/config"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/observability"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// StoreFactory opens the user store selected by cfg.Driver. The returned
	// close function releases it.
	// Default: openStore
	StoreFactory func(ctx context.Context, cfg config.DatabaseConfig) (UserStore, func(), error)

	// MigratorFactory creates a schema migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// APIServerFactory creates the API server.
	// Default: web.NewServer
	APIServerFactory func(addr string, handler http.Handler) APIServer

	// OnReady is called with the API address once every server is up.
	OnReady func(apiAddr string)
}

// UserStore is the user repository plus the readiness probe the store offers.
type UserStore interface {
	auth.UserRepository
	Ping(ctx context.Context) error
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// APIServer wraps the methods used from web.Server.
type APIServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}
