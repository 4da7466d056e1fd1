// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

// Package store provides the PostgreSQL connection pool and schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Startup connection backoff.
const (
	connectBaseDelay = 500 * time.Millisecond
	connectMaxDelay  = 5 * time.Second
)

// Connect opens a connection pool and waits until the database answers a
// ping. Failed pings are retried up to retries times with capped exponential
// backoff; this only applies at startup, never to requests.
func Connect(ctx context.Context, dsn string, retries uint64) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	backoff := retry.WithMaxRetries(retries, retry.WithCappedDuration(connectMaxDelay, retry.NewExponential(connectBaseDelay)))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			slog.WarnContext(ctx, "database not reachable", "attempt", attempt, "error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}

	return pool, nil
}
