package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/kirinyoku/tixmint/docs"
	"github.com/kirinyoku/tixmint/internal/app"
	"github.com/kirinyoku/tixmint/internal/config"
)

// @title TixMint API
// @version 1.0
// @description Fixed-cap ticket sale: mint, transfer and fund over a balance ledger.
// @host localhost:8080
// @BasePath /
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	application, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
