package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/service/auth"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed access token for a user",
		Long:  "Sign an access token with the configured JWT secret. Intended for local testing of the HTTP API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToken(cmd, user)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user ID (UUID) to issue the token for")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runToken(cmd *cobra.Command, user string) error {
	userID, err := uuid.Parse(user)
	if err != nil || userID == uuid.Nil {
		return fmt.Errorf("invalid user ID %q", user)
	}

	cfg, err := loadConfig("auth")
	if err != nil {
		return err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create JWT service: %w", err)
	}

	ctx := cmd.Context()
	token, err := jwtService.GenerateToken(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
