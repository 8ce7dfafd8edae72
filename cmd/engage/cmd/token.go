package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/templui/heartline/internal/service"
)

func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Access token commands",
	}

	cmd.AddCommand(tokenIssueCmd())
	return cmd
}

// tokenIssueCmd mints a bearer token for local testing against the API.
func tokenIssueCmd() *cobra.Command {
	var (
		userID string
		expiry time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			token, err := service.NewAuthService(cfg.JWTSecret, expiry).GenerateJWT(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID placed in the subject claim")
	cmd.Flags().DurationVar(&expiry, "expiry", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
