package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"medbee/internal/auth/secrets"
	"medbee/internal/auth/seed"
	"medbee/internal/platform/postgres"
	"medbee/internal/storage"
)

func newSeedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create bootstrap accounts",
	}
	cmd.AddCommand(
		newSeedAccountCmd(a, "admin", "Create the admin account unless an admin exists", seed.Admin, true),
		newSeedAccountCmd(a, "demo-user", "Create the demo user unless its email is registered", seed.DemoUser, false),
	)
	return cmd
}

func newSeedAccountCmd(a *app, use, short string, acct seed.Account, admin bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSeeder(cmd.Context(), a, func(s *seed.Seeder) error {
				var (
					res seed.Result
					err error
				)
				if admin {
					res, err = s.EnsureAdmin(cmd.Context(), acct)
				} else {
					res, err = s.EnsureUser(cmd.Context(), acct)
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !res.Created {
					_, err = fmt.Fprintf(out, "%s already exists, nothing to do\n", use)
					return err
				}
				_, err = fmt.Fprintf(out, "created %s\n  id: %s\n  email: %s\n  password: %s\n",
					use, res.User.ID, res.User.Email, acct.Password)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&acct.Email, "email", acct.Email, "Account email")
	cmd.Flags().StringVar(&acct.Password, "password", acct.Password, "Account password")
	return cmd
}

// withSeeder runs fn against the configured database. Seeding in-memory
// stores would be lost on exit, so a database URL is required.
func withSeeder(ctx context.Context, a *app, fn func(*seed.Seeder) error) error {
	db := postgres.NewManager(a.cfg.Database, a.log)
	if !db.Configured() {
		return errors.New("DATABASE_URL is required to seed accounts")
	}
	defer func() { _ = db.Close() }()

	stores, err := storage.Open(ctx, db, a.log)
	if err != nil {
		return err
	}
	return fn(seed.New(stores.Users, secrets.NewHasher(a.cfg.Auth.BcryptCost)))
}
