package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "medbee/internal/jwt_token"
	id "medbee/pkg/domain"
)

const tokenIssuer = "medbee"

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with API tokens",
	}
	cmd.AddCommand(newTokenIssueCmd(a))
	return cmd
}

func newTokenIssueCmd(a *app) *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Print a signed token for a user ID",
		Long: "Signs a token with the configured JWT secret. The user is not looked up;\n" +
			"the server rejects the token if the ID does not resolve.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uid, err := id.ParseUserID(userID)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = a.cfg.Auth.TokenTTL
			}
			if a.cfg.UsesDefaultSecret() {
				a.log.Warn("signing with the development JWT secret")
			}
			token, err := jwttoken.NewJWTService(a.cfg.Auth.JWTSecret, tokenIssuer).GenerateToken(uid, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID (UUID)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: the configured API token lifetime)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
