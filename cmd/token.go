package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"freelance-tax/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token",
	Example: `  # Token for the owner, valid for the configured TTL
  freelance-tax token --subject me@example.com --role owner

  # Read-only token for a week
  freelance-tax token --subject cabinet --role viewer --ttl 168h`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.RequireJWTSecret(); err != nil {
			return err
		}
		subject, _ := cmd.Flags().GetString("subject")
		roleName, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if ttl <= 0 {
			ttl = cfg.TokenTTL
		}
		role, ok := auth.NormalizeRole(roleName)
		if !ok {
			return fmt.Errorf("unknown role %q (viewer, accountant, owner)", roleName)
		}
		token, err := auth.IssueToken([]byte(cfg.JWTSecret), subject, role, ttl, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("subject", "", "Token subject (required)")
	tokenCmd.Flags().String("role", string(auth.RoleOwner), "Role: viewer, accountant or owner")
	tokenCmd.Flags().Duration("ttl", 0, "Token lifetime (default: AUTH_TOKEN_TTL)")
	_ = tokenCmd.MarkFlagRequired("subject")
}
