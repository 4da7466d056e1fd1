// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/TheQuangNguyen/DevConnector-Project/internal/store"
)

var _ = Describe("Connect", func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("devconnector_test"),
			postgres.WithUsername("devconnector"),
			postgres.WithPassword("devconnector"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = container.Terminate(ctx)
	})

	It("returns a pool that answers pings", func() {
		pool, err := store.Connect(ctx, connStr, 3)
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		Expect(pool.Ping(ctx)).To(Succeed())
	})

	It("creates the users table with a case-insensitive email index", func() {
		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		defer migrator.Close() //nolint:errcheck // test cleanup
		Expect(migrator.Up()).To(Succeed())

		pool, err := store.Connect(ctx, connStr, 3)
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		_, err = pool.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, avatar_url) VALUES ('a', 'A', 'a@x.com', 'h', 'u')`)
		Expect(err).NotTo(HaveOccurred())

		_, err = pool.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, avatar_url) VALUES ('b', 'B', 'A@X.COM', 'h', 'u')`)
		Expect(err).To(HaveOccurred())
	})
})
