package input

import (
	"context"

	"browser-actor/internal/domain/entity"
)

type ExecuteResult struct {
	TaskID      entity.TaskID
	FinalAnswer string
	Iterations  int
	Actions     int
	Steps       []entity.Step
	// LastObservation is the most recent page seen after an action.
	LastObservation *entity.PageContent
}

// TaskExecutor drives an actor task from a natural-language goal.
type TaskExecutor interface {
	Execute(ctx context.Context, goal string) (*ExecuteResult, error)
}
