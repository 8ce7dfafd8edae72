package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templui/heartline/internal/app"
)

func BadgesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "badges",
		Short: "Badge commands",
	}

	cmd.AddCommand(badgesEvaluateCmd())
	return cmd
}

func badgesEvaluateCmd() *cobra.Command {
	var users []string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Re-run the unlock rules and grant missing badges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				ctx := cmd.Context()
				if len(users) == 0 {
					ids, err := a.ActivityService.UserIDs(ctx)
					if err != nil {
						return err
					}
					users = ids
				}

				granted := 0
				for _, userID := range users {
					badges, err := a.BadgeService.Evaluate(ctx, userID)
					if err != nil {
						return fmt.Errorf("evaluate %s: %w", userID, err)
					}
					for _, b := range badges {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", userID, b.BadgeType)
					}
					granted += len(badges)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d users, %d badges granted\n", len(users), granted)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&users, "user", nil, "user IDs (repeatable, default all)")
	return cmd
}
