package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templui/heartline/internal/app"
)

func GoalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Goal maintenance commands",
	}

	cmd.AddCommand(goalsDeleteCmd())
	return cmd
}

// goalsDeleteCmd is the only way to remove a goal row; the API archives.
func goalsDeleteCmd() *cobra.Command {
	var userID, goalID string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Permanently delete a goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				if err := a.GoalService.HardDelete(cmd.Context(), userID, goalID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted goal %s\n", goalID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user ID")
	cmd.Flags().StringVar(&goalID, "goal", "", "goal ID")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("goal")
	return cmd
}
