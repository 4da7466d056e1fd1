// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/TheQuangNguyen/DevConnector-Project/internal/xdg"
)

// EnvPrefix prefixes environment overrides: DEVCONNECTOR_AUTH_TOKEN_TTL
// sets auth.token_ttl.
const EnvPrefix = "DEVCONNECTOR_"

// Unprefixed variables honored for compatibility with existing deployments.
// Prefixed variables take precedence over them.
var legacyEnv = map[string]string{
	"DATABASE_URL": "database.url",
	"JWT_SECRET":   "auth.jwt_secret",
}

// flagKeys maps command-line flags registered by RegisterFlags to config keys.
var flagKeys = map[string]string{
	"addr":            "server.addr",
	"metrics-addr":    "server.metrics_addr",
	"log-format":      "server.log_format",
	"cors-origins":    "server.cors_origins",
	"database-driver": "database.driver",
	"database-url":    "database.url",
	"auto-migrate":    "database.auto_migrate",
}

// RegisterFlags adds the configuration flags to fs. Their defaults are
// informational only: unset flags never override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("addr", d.Server.Addr, "API listen address")
	fs.String("metrics-addr", d.Server.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", d.Server.LogFormat, "log format (json, text)")
	fs.StringSlice("cors-origins", d.Server.CORSOrigins, "allowed CORS origins")
	fs.String("database-driver", d.Database.Driver, "user store driver (postgres, memory)")
	fs.String("database-url", "", "PostgreSQL connection string")
	fs.Bool("auto-migrate", d.Database.AutoMigrate, "apply pending migrations on startup")
}

// Options controls where Load reads from.
type Options struct {
	// File is an explicit config file. It must exist. Empty selects the XDG
	// default, which is read only if present.
	File string

	// EnvFile is a dotenv file loaded into the process environment before
	// environment variables are read. Empty selects ".env". A missing file
	// is ignored.
	EnvFile string

	// Flags holds flags registered with RegisterFlags. Only flags the user
	// set are applied.
	Flags *pflag.FlagSet
}

// Load builds a Config. Sources, lowest precedence first: Default(), the
// YAML file, legacy environment variables, DEVCONNECTOR_ variables, flags.
// The result is validated.
func Load(opts Options) (Config, error) {
	cfg, err := LoadUnvalidated(opts)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadUnvalidated is Load without Validate, for commands that only need
// part of the configuration.
func LoadUnvalidated(opts Options) (Config, error) {
	k := koanf.New(".")

	path, err := resolveFile(opts.File)
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
		if err != nil {
			return Config{}, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
		if err := ValidateFile(data); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
		}
	}

	if err := loadDotenv(opts.EnvFile); err != nil {
		return Config{}, err
	}

	legacy := env.Provider("", ".", func(name string) string {
		return legacyEnv[name]
	})
	if err := k.Load(legacy, nil); err != nil {
		return Config{}, oops.Code("CONFIG_READ_FAILED").With("source", "legacy env").Wrap(err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, oops.Code("CONFIG_READ_FAILED").With("source", "env").Wrap(err)
	}

	if opts.Flags != nil {
		p := posflag.ProviderWithFlag(opts.Flags, ".", k, flagValue(opts.Flags))
		if err := k.Load(p, nil); err != nil {
			return Config{}, oops.Code("CONFIG_READ_FAILED").With("source", "flags").Wrap(err)
		}
	}

	return unmarshal(k)
}

// resolveFile returns the file to read, or "" when no file applies.
func resolveFile(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	path, err := xdg.ConfigFile()
	if err != nil {
		// No home directory means no default file.
		return "", nil //nolint:nilerr // the default file is optional
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
	}
	return path, nil
}

func loadDotenv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
	}
	return nil
}

// envKey maps DEVCONNECTOR_AUTH_JWT_SECRET to auth.jwt_secret. The first
// underscore after the prefix separates the section from the key.
func envKey(name string) string {
	rest := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	section, key, ok := strings.Cut(rest, "_")
	if !ok || section == "" || key == "" {
		return ""
	}
	return section + "." + key
}

func flagValue(fs *pflag.FlagSet) func(f *pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		if f.Value.Type() == "stringSlice" {
			v, err := fs.GetStringSlice(f.Name)
			if err != nil {
				return "", nil
			}
			return key, v
		}
		return key, f.Value.String()
	}
}

// unmarshal decodes k over Default(). Keys present in k replace the default
// value entirely, including lists.
func unmarshal(k *koanf.Koanf) (Config, error) {
	cfg := Default()
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
			ZeroFields:       true,
		},
	})
	if err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").With("operation", "decode config").Wrap(err)
	}
	return cfg, nil
}
