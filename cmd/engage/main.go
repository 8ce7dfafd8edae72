package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/templui/heartline/cmd/engage/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "engage",
		Short:        "Operational tools for the heartline engagement engine",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.ReportsCmd())
	rootCmd.AddCommand(cmd.BadgesCmd())
	rootCmd.AddCommand(cmd.GoalsCmd())
	rootCmd.AddCommand(cmd.TokenCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
