package script

import (
	"context"
	"fmt"

	"browser-actor/internal/actor/action"
	"browser-actor/internal/application/port/input"
	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"
)

// UserPrompter blocks until a person says they are done.
type UserPrompter interface {
	WaitForUser(ctx context.Context, message string) error
}

type Summary struct {
	TaskID  entity.TaskID
	Results []entity.ActionResult
	Failed  int
}

// Runner plays a script against a fresh actor task, one action at a time.
type Runner struct {
	tasks    input.TaskService
	reporter output.ActionReporter
	prompter UserPrompter
	logger   output.LoggerPort
}

// NewRunner accepts a nil prompter; yield_to_user is then passed to the
// task like any other action and rejected there.
func NewRunner(tasks input.TaskService, reporter output.ActionReporter, prompter UserPrompter, logger output.LoggerPort) *Runner {
	if reporter == nil {
		reporter = output.NopReporter{}
	}
	return &Runner{tasks: tasks, reporter: reporter, prompter: prompter, logger: logger}
}

func (r *Runner) Run(ctx context.Context, s *action.Script) (*Summary, error) {
	info := r.tasks.CreateTask(s.Title)
	defer func() {
		if err := r.tasks.StopTask(info.ID); err != nil {
			r.logger.Warn("Failed to stop task", "task", info.ID, "error", err)
		}
	}()
	r.logger.Info("Running script", "title", s.Title, "task", info.ID, "actions", len(s.Actions))

	summary := &Summary{TaskID: info.ID}
	for i := range s.Actions {
		a := &s.Actions[i]
		res, err := r.step(ctx, info.ID, a)
		if err != nil {
			return summary, fmt.Errorf("action %d (%s): %w", i+1, a.Kind(), err)
		}

		r.reporter.ReportAction(info.ID, a.Kind(), res.Result, res.Observation)
		summary.Results = append(summary.Results, res.Result)
		if res.Result.IsOk() {
			continue
		}

		summary.Failed++
		r.logger.Warn("Action failed", "task", info.ID, "index", i+1, "result", res.Result.String())
		if s.StopOnError {
			break
		}
	}
	return summary, nil
}

func (r *Runner) step(ctx context.Context, id entity.TaskID, a *action.Action) (*input.ActResult, error) {
	if a.Kind() != "yield_to_user" || r.prompter == nil {
		return r.tasks.Act(ctx, id, a)
	}

	if err := r.tasks.PauseTask(id); err != nil {
		return nil, err
	}
	if err := r.prompter.WaitForUser(ctx, a.YieldToUser.Message); err != nil {
		return nil, err
	}
	obs, err := r.tasks.ResumeTask(ctx, id)
	if err != nil {
		return nil, err
	}
	return &input.ActResult{Result: entity.OkResult(), Observation: obs}, nil
}
