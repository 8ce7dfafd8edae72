package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/templui/heartline/internal/app"
	"github.com/templui/heartline/internal/model"
)

func ReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Period report commands",
	}

	cmd.AddCommand(reportsRunCmd())
	return cmd
}

func reportsRunCmd() *cobra.Command {
	var (
		periodType  string
		periodStart string
		users       []string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate period reports for many users",
		Long: `Generate one snapshot per user for a closed period. Without --user,
every user with recorded activity is included. Without --start, the
previous period is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				pt := model.PeriodType(periodType)

				var start time.Time
				if periodStart == "" {
					current, _ := a.Calendar.Period(pt, time.Now())
					start, _ = a.Calendar.Previous(pt, current)
				} else {
					d, err := a.Calendar.Parse(periodStart)
					if err != nil {
						return err
					}
					start = d
				}

				began := time.Now()
				res, err := a.ReportService.RunBatch(cmd.Context(), pt, start, users, concurrency)
				if res != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d generated, %d failed (%s)\n",
						pt, a.Calendar.Key(start), res.Generated, len(res.Failed),
						time.Since(began).Round(time.Millisecond))
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&periodType, "period", string(model.PeriodMonthly), "period type: weekly, monthly or yearly")
	cmd.Flags().StringVar(&periodStart, "start", "", "any day inside the period (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&users, "user", nil, "user IDs (repeatable)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "reports generated in parallel")
	return cmd
}
