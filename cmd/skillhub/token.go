package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/skillhub/internal/auth"
	"github.com/terra-clan/skillhub/internal/config"
	"github.com/terra-clan/skillhub/internal/models"
)

var tokenOpts struct {
	subject     string
	email       string
	name        string
	role        string
	permissions []string
	ttl         time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign a bearer token with JWT_SECRET, for operators and local testing",
	RunE:  runToken,
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenOpts.subject, "sub", "", "user id (required)")
	f.StringVar(&tokenOpts.email, "email", "", "email claim")
	f.StringVar(&tokenOpts.name, "name", "", "display name claim")
	f.StringVar(&tokenOpts.role, "role", "", "role claim")
	f.StringSliceVar(&tokenOpts.permissions, "perm", nil, "permission, repeatable (e.g. skills:*)")
	f.DurationVar(&tokenOpts.ttl, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	if tokenOpts.subject == "" {
		return errors.New("--sub is required")
	}

	authCfg := config.LoadAuth()
	if authCfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	token, err := auth.NewVerifier(authCfg.JWTSecret, authCfg.Issuer).Issue(&models.Principal{
		UserID:      tokenOpts.subject,
		Email:       tokenOpts.email,
		Name:        tokenOpts.name,
		Role:        tokenOpts.role,
		Permissions: tokenOpts.permissions,
	}, tokenOpts.ttl)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
