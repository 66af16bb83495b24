package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"browser-actor/internal/actor/action"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <script.yaml>",
	Short: "Run a YAML script of actions in a new task",
	Long: `Run executes each action of a script in order inside one actor task and
prints the result of every action.

Example script:

  title: search
  stop_on_error: true
  actions:
    - navigate: {url: "https://example.com"}
    - click:
        target: {coordinate: {x: 120, y: 40}}
    - yield_to_user: {message: "Log in, then press Enter"}`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	s, err := action.LoadScript(args[0])
	if err != nil {
		return err
	}
	if s.Title == "" {
		s.Title = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := newContainer(ctx, cmd)
	if err != nil {
		return err
	}
	defer container.Close()

	container.Reporter.ShowTitle(s.Title)
	summary, err := container.Scripts.Run(ctx, s)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d actions, %d failed\n", len(summary.Results), summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d actions failed", summary.Failed, len(summary.Results))
	}
	return nil
}
