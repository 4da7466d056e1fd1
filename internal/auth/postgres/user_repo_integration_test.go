// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

//go:build integration

package postgres_test

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/TheQuangNguyen/DevConnector-Project/internal/auth"
	"github.com/TheQuangNguyen/DevConnector-Project/internal/auth/postgres"
)

var _ = Describe("UserRepository", func() {
	var (
		ctx  context.Context
		repo *postgres.UserRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = postgres.NewUserRepository(testPool)
		_, err := testPool.Exec(ctx, `DELETE FROM users`)
		Expect(err).NotTo(HaveOccurred())
	})

	newUser := func(email string) *auth.User {
		return &auth.User{
			Name:         "A",
			Email:        email,
			PasswordHash: "hash",
			AvatarURL:    auth.AvatarURL(email),
		}
	}

	It("round-trips a created user", func() {
		user := newUser("a@x.com")
		Expect(repo.Create(ctx, user)).To(Succeed())
		Expect(user.ID).NotTo(Equal(ulid.ULID{}))
		Expect(user.CreatedAt).NotTo(BeZero())

		byID, err := repo.GetByID(ctx, user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.Email).To(Equal("a@x.com"))
		Expect(byID.PasswordHash).To(Equal("hash"))

		byEmail, err := repo.GetByEmail(ctx, "A@X.COM")
		Expect(err).NotTo(HaveOccurred())
		Expect(byEmail.ID).To(Equal(user.ID))
	})

	It("rejects a second user with the same email in any case", func() {
		Expect(repo.Create(ctx, newUser("a@x.com"))).To(Succeed())

		err := repo.Create(ctx, newUser("A@x.com"))
		Expect(err).To(MatchError(auth.ErrDuplicateEmail))
	})

	It("admits exactly one of many concurrent registrations", func() {
		const attempts = 8
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			created  int
			rejected int
		)
		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				err := repo.Create(ctx, newUser("race@x.com"))
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					created++
					return
				}
				Expect(err).To(MatchError(auth.ErrDuplicateEmail))
				rejected++
			}()
		}
		wg.Wait()
		Expect(created).To(Equal(1))
		Expect(rejected).To(Equal(attempts - 1))
	})

	It("reports unknown users as not found", func() {
		_, err := repo.GetByID(ctx, ulid.Make())
		Expect(err).To(MatchError(auth.ErrNotFound))

		_, err = repo.GetByEmail(ctx, "nobody@x.com")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("deletes users", func() {
		user := newUser("gone@x.com")
		Expect(repo.Create(ctx, user)).To(Succeed())
		Expect(repo.Delete(ctx, user.ID)).To(Succeed())

		_, err := repo.GetByID(ctx, user.ID)
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})
