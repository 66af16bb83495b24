package main

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"browser-actor/internal/domain/entity"

	"github.com/spf13/cobra"
)

var (
	agentTimeout  time.Duration
	agentEvaluate bool
)

var agentCmd = &cobra.Command{
	Use:   "agent <goal>",
	Short: "Let a language model drive a task towards a goal",
	Long: `Agent hands the goal to the model configured by OPENROUTER_API_KEY and
OPENROUTER_MODEL_NAME. The model acts through the same tool pipeline as
scripts and sees a fresh observation after every action.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAgent,
}

func init() {
	rootCmd.AddCommand(agentCmd)
	agentCmd.Flags().DurationVar(&agentTimeout, "timeout", 30*time.Minute, "Give up after this long")
	agentCmd.Flags().BoolVar(&agentEvaluate, "evaluate", false, "Ask the model to judge whether the goal was reached")
}

func runAgent(cmd *cobra.Command, args []string) error {
	goal := strings.TrimSpace(strings.Join(args, " "))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, agentTimeout)
	defer cancel()

	container, err := newContainer(ctx, cmd)
	if err != nil {
		return err
	}
	defer container.Close()

	if container.TaskExecutor == nil {
		return errors.New("OPENROUTER_API_KEY is not set")
	}

	container.Logger.Info("Task started", "goal", goal)
	container.Reporter.ShowTitle(goal)

	result, err := container.TaskExecutor.Execute(ctx, goal)
	if err != nil {
		container.Logger.Error("Task failed", "error", err)
		return err
	}

	container.Logger.Info("Task completed", "iterations", result.Iterations, "actions", result.Actions)
	container.Reporter.ShowAnswer(result.FinalAnswer)

	if !agentEvaluate {
		return nil
	}
	verdict, err := container.Evaluator.Evaluate(ctx, entity.EvaluationCriteria{
		Goal:   goal,
		Answer: result.FinalAnswer,
		Steps:  result.Steps,
		Final:  result.LastObservation,
	})
	if err != nil {
		return err
	}
	container.Reporter.ShowEvaluation(verdict)
	if !verdict.Success {
		return errors.New("goal not reached")
	}
	return nil
}
