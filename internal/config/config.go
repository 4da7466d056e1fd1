// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

// Package config loads DevConnector configuration from compiled defaults,
// an optional YAML file, the environment and command-line flags.
package config

import (
	"log/slog"
	"net/url"
	"time"

	"github.com/samber/oops"

	"github.com/TheQuangNguyen/DevConnector-Project/internal/auth"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the complete service configuration. It is passed by value and
// not modified after Load returns.
type Config struct {
	Server   ServerConfig   `koanf:"server" json:"server,omitempty" jsonschema:"description=HTTP server settings"`
	Database DatabaseConfig `koanf:"database" json:"database,omitempty" jsonschema:"description=User store settings"`
	Auth     AuthConfig     `koanf:"auth" json:"auth,omitempty" jsonschema:"description=Authentication settings"`
}

// ServerConfig configures the HTTP listeners.
type ServerConfig struct {
	Addr        string   `koanf:"addr" json:"addr,omitempty" jsonschema:"description=API listen address,example=:5000"`
	MetricsAddr string   `koanf:"metrics_addr" json:"metrics_addr,omitempty" jsonschema:"description=Metrics and health listen address; empty disables"`
	LogFormat   string   `koanf:"log_format" json:"log_format,omitempty" jsonschema:"enum=json,enum=text"`
	CORSOrigins []string `koanf:"cors_origins" json:"cors_origins,omitempty" jsonschema:"description=Origins allowed to call the API from a browser"`
}

// DatabaseConfig selects and configures the user store.
type DatabaseConfig struct {
	Driver         string `koanf:"driver" json:"driver,omitempty" jsonschema:"enum=postgres,enum=memory"`
	URL            string `koanf:"url" json:"url,omitempty" jsonschema:"description=PostgreSQL connection string"`
	AutoMigrate    bool   `koanf:"auto_migrate" json:"auto_migrate,omitempty" jsonschema:"description=Apply pending migrations on startup"`
	ConnectRetries uint64 `koanf:"connect_retries" json:"connect_retries,omitempty" jsonschema:"maximum=100"`
}

// AuthConfig configures password hashing and tokens.
type AuthConfig struct {
	JWTSecret         string        `koanf:"jwt_secret" json:"jwt_secret,omitempty" jsonschema:"description=HS256 signing secret"`
	TokenTTL          time.Duration `koanf:"token_ttl" json:"token_ttl,omitempty"`
	MinPasswordLength int           `koanf:"min_password_length" json:"min_password_length,omitempty" jsonschema:"minimum=1"`
	Hasher            string        `koanf:"hasher" json:"hasher,omitempty" jsonschema:"enum=bcrypt,enum=argon2id"`
	BcryptCost        int           `koanf:"bcrypt_cost" json:"bcrypt_cost,omitempty" jsonschema:"minimum=4,maximum=31"`
}

// Default returns the compiled defaults. The JWT secret has no default.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":5000",
			MetricsAddr: "127.0.0.1:9100",
			LogFormat:   "json",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Driver:         DriverPostgres,
			ConnectRetries: 5,
		},
		Auth: AuthConfig{
			TokenTTL:          auth.DefaultTokenTTL,
			MinPasswordLength: auth.DefaultMinPasswordLength,
			Hasher:            auth.HasherBcrypt,
			BcryptCost:        auth.DefaultBcryptCost,
		},
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	invalid := oops.Code("CONFIG_INVALID")

	if c.Server.Addr == "" {
		return invalid.With("field", "server.addr").Errorf("server.addr is required")
	}
	if c.Server.LogFormat != "json" && c.Server.LogFormat != "text" {
		return invalid.With("field", "server.log_format").
			Errorf("server.log_format must be 'json' or 'text', got %q", c.Server.LogFormat)
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return invalid.With("field", "database.url").
				Errorf("database.url is required for the postgres driver (or set DATABASE_URL)")
		}
	case DriverMemory:
	default:
		return invalid.With("field", "database.driver").
			Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return invalid.With("field", "auth.jwt_secret").
			Errorf("auth.jwt_secret is required (or set JWT_SECRET)")
	}
	if c.Auth.TokenTTL <= 0 {
		return invalid.With("field", "auth.token_ttl").Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.MinPasswordLength <= 0 {
		return invalid.With("field", "auth.min_password_length").Errorf("auth.min_password_length must be positive")
	}
	if c.Auth.MinPasswordLength > auth.MaxPasswordBytes {
		return invalid.With("field", "auth.min_password_length").
			Errorf("auth.min_password_length cannot exceed %d", auth.MaxPasswordBytes)
	}
	if _, err := auth.NewPasswordHasher(c.Auth.Hasher, c.Auth.BcryptCost); err != nil {
		return invalid.With("field", "auth.hasher").Wrap(err)
	}
	return nil
}

// LogValue renders the configuration without secrets.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", c.Server.Addr),
		slog.String("metrics_addr", c.Server.MetricsAddr),
		slog.String("log_format", c.Server.LogFormat),
		slog.Any("cors_origins", c.Server.CORSOrigins),
		slog.String("database_driver", c.Database.Driver),
		slog.String("database_url", redactURL(c.Database.URL)),
		slog.Bool("auto_migrate", c.Database.AutoMigrate),
		slog.Duration("token_ttl", c.Auth.TokenTTL),
		slog.String("hasher", c.Auth.Hasher),
	)
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable]"
	}
	return u.Redacted()
}
