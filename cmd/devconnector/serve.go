// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/TheQuangNguyen/DevConnector-Project/internal/auth"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/auth/memory"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/auth/postgres"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/config"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/logging"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/observability"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/store"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/web"
	"github.com/TheQuangNguyen/DevConnector-Project/pkg/errutil"
)

// shutdownTimeout bounds graceful shutdown of all servers.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API serving POST /api/users, POST /api/auth and
GET /api/auth, plus the metrics and health endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(loadOptions(cmd))
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServeWithDeps(ctx, cfg, cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

// runServeWithDeps runs the API until ctx is cancelled or a server fails.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg config.Config, cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.MigratorFactory == nil {
		deps.MigratorFactory = migratorFactory
	}
	if deps.StoreFactory == nil {
		deps.StoreFactory = openStore
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker, observability.WithBuildInfo(version, commit))
		}
	}
	if deps.APIServerFactory == nil {
		deps.APIServerFactory = func(addr string, handler http.Handler) APIServer {
			return web.NewServer(addr, handler)
		}
	}

	logger := logging.SetDefault("devconnector", version, cfg.Server.LogFormat)
	logger.Info("starting api", "config", cfg)

	if cfg.Database.Driver == config.DriverPostgres && cfg.Database.AutoMigrate {
		if err := migrateUp(deps.MigratorFactory, cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	users, closeStore, err := deps.StoreFactory(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info("user store ready", "driver", cfg.Database.Driver)

	svc, err := newAuthService(cfg.Auth, users, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Server.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Server.MetricsAddr, users.Ping)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("SERVER_START_FAILED").With("server", "observability").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		metrics = obsServer.Metrics()
	} else {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	router, err := web.NewRouter(web.RouterConfig{
		Service:     svc,
		Metrics:     metrics,
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	if err != nil {
		stopServers(nil, obsServer)
		return err
	}

	apiServer := deps.APIServerFactory(cfg.Server.Addr, router)
	apiErrChan, err := apiServer.Start()
	if err != nil {
		stopServers(nil, obsServer)
		return oops.Code("SERVER_START_FAILED").With("server", "api").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, apiErrChan, "api")

	cmd.Println("DevConnector API started on", apiServer.Addr())
	logger.Info("api ready", "addr", apiServer.Addr())
	if deps.OnReady != nil {
		deps.OnReady(apiServer.Addr())
	}

	<-ctx.Done()
	logger.Info("shutting down")
	stopServers(apiServer, obsServer)
	logger.Info("shutdown complete")
	return nil
}

// newAuthService wires the hasher, token issuer and repository.
func newAuthService(cfg config.AuthConfig, users auth.UserRepository, logger *slog.Logger) (*auth.Service, error) {
	hasher, err := auth.NewPasswordHasher(cfg.Hasher, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	return auth.NewAuthService(users, hasher, tokens,
		auth.WithMinPasswordLength(cfg.MinPasswordLength),
		auth.WithLogger(logger),
	)
}

// openStore opens the configured user store.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (UserStore, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory user store; users are lost on restart")
		return memory.NewUserRepository(), func() {}, nil
	case config.DriverPostgres:
		pool, err := store.Connect(ctx, cfg.URL, cfg.ConnectRetries)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewUserRepository(pool), pool.Close, nil
	default:
		return nil, nil, oops.Code("CONFIG_INVALID").With("driver", cfg.Driver).Errorf("unknown database driver %q", cfg.Driver)
	}
}

func migrateUp(factory func(string) (Migrator, error), url string) error {
	m, err := factory(url)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			errutil.LogError(slog.Default(), "close migrator", closeErr)
		}
	}()
	return m.Up()
}

// stopServers stops the non-nil servers within shutdownTimeout.
func stopServers(api APIServer, obs ObservabilityServer) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if api != nil {
		if err := api.Stop(ctx); err != nil {
			errutil.LogError(slog.Default(), "error stopping api server", err)
		}
	}
	if obs != nil {
		if err := obs.Stop(ctx); err != nil {
			errutil.LogError(slog.Default(), "error stopping observability server", err)
		}
	}
}

// monitorServerErrors cancels ctx when a server reports a serve error.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			slog.Error("server failed", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
