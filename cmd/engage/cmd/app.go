// Package cmd holds the engage subcommands. Each one loads the same config
// and logger as the server.
package cmd

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/templui/heartline/internal/app"
	"github.com/templui/heartline/internal/config"
	"github.com/templui/heartline/internal/db"
	"github.com/templui/heartline/internal/logger"
)

func loadConfig() *config.Config {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN, "engage")
	return cfg
}

// withApp builds the full service graph, runs fn and closes it.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	a, err := app.New(ctx, loadConfig())
	if err != nil {
		return err
	}
	defer a.Close()
	defer logger.Flush()
	return fn(a)
}

// withDB opens a bare connection without running migrations.
func withDB(ctx context.Context, fn func(*sqlx.DB, string) error) error {
	cfg := loadConfig()
	driver, err := db.NormalizeDriver(cfg.DBDriver)
	if err != nil {
		return err
	}
	database, err := db.Open(ctx, driver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(database, driver)
}
