// Package cmd implements the openspot command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/llehouerou/openspot/internal/app"
	"github.com/llehouerou/openspot/internal/config"
	"github.com/llehouerou/openspot/internal/icons"
	"github.com/llehouerou/openspot/internal/logging"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "openspot",
	Short: "Stream, queue and download music from the terminal",
	Long: `openspot searches a streaming catalog, plays tracks through a queue with
shuffle and repeat, keeps liked songs and playlists, and downloads tracks for
offline playback.

Configuration is read from ~/.config/openspot/config.toml and ./config.toml.`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "openspot:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (overrides the default lookup)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

// openApp builds the application. interactive sends logs to the configured
// file only, so they do not draw over the terminal view.
func openApp(interactive bool) (*app.App, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	icons.Init(cfg.Icons)
	lc := cfg.GetLogConfig()
	if logLevel != "" {
		lc.Level = strings.ToLower(logLevel)
	}

	var w io.Writer = os.Stderr
	closeLog := func() error { return nil }
	switch {
	case lc.File != "":
		if w, closeLog, err = logging.OpenFile(lc.File); err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
	case interactive:
		w = io.Discard
	}
	logger := logging.New(w, lc.Level)

	a, err := app.New(cfg, app.WithLogger(logger))
	if err != nil {
		_ = closeLog()
		return nil, nil, err
	}
	return a, func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown", "err", err)
		}
		_ = closeLog()
	}, nil
}
