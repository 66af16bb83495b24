package main

import (
	"context"
	"fmt"
	"os"

	"browser-actor/internal/di"
	"browser-actor/internal/infrastructure/env"

	"github.com/spf13/cobra"
)

var (
	headless    bool
	browserURL  string
	showBrowser bool
)

var rootCmd = &cobra.Command{
	Use:   "actor",
	Short: "Drive a browser through validated tool invocations",
	Long: `actor runs browser actions through the tool pipeline: every action is
validated, checked against the last observation of the page, invoked and
followed by a fresh observation.

Configuration is read from the environment and from .env files.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "Run the browser without a window (overrides ACTOR_HEADLESS)")
	rootCmd.PersistentFlags().BoolVar(&showBrowser, "show-browser", false, "Force a visible browser window")
	rootCmd.PersistentFlags().StringVar(&browserURL, "browser-url", "", "DevTools URL of a running browser to attach to")
	rootCmd.MarkFlagsMutuallyExclusive("headless", "show-browser")
}

func Execute(version string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(`{{printf "actor version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the container config from the environment and the
// persistent flags.
func loadConfig(cmd *cobra.Command) di.Config {
	cfg := di.ConfigFromEnv(env.NewEnvService())
	if f := cmd.Flag("headless"); f != nil && f.Changed {
		cfg.Browser.Headless = headless
	}
	if showBrowser {
		cfg.Browser.Headless = false
	}
	if browserURL != "" {
		cfg.Browser.ControlURL = browserURL
	}
	return cfg
}

func newContainer(ctx context.Context, cmd *cobra.Command) (*di.Container, error) {
	container, err := di.NewContainer(ctx, loadConfig(cmd))
	if err != nil {
		return nil, fmt.Errorf("initialization failed: %w", err)
	}
	return container, nil
}
