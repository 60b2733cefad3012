package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"parley/internal/pkg/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a session token for a user",
	Long: `Sign an access token with the configured auth.jwt_secret.

Sign-in itself is handled by the identity provider in front of Parley;
this command is meant for local development and operational debugging.`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	flags := tokenCmd.Flags()
	flags.String("user-id", "", "owner id embedded in the token (required)")
	flags.String("email", "", "email claim")
	flags.String("name", "", "display name claim")
	flags.Duration("ttl", 0, "token lifetime (default: auth.access_token_expiry)")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	flags := cmd.Flags()

	userID, _ := flags.GetString("user-id")
	if userID == "" {
		return errors.New("--user-id is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not configured")
	}

	email, _ := flags.GetString("email")
	name, _ := flags.GetString("name")
	ttl, _ := flags.GetDuration("ttl")
	if ttl <= 0 {
		ttl = cfg.Auth.AccessTokenExpiry
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	token, err := jwt.NewJWT(cfg.Auth.JWTSecret, ttl).GenerateToken(userID, email, name)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
