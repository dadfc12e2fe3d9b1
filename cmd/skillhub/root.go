package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/terra-clan/skillhub/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "skillhub",
	Short:         "Skill catalog API with search, likes, comments and inquiries",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// setupLogging installs a JSON slog handler at the configured level
func setupLogging(level string) {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(logger)
}
