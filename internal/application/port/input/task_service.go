package input

import (
	"context"

	"browser-actor/internal/actor/action"
	"browser-actor/internal/domain/entity"
)

type ActResult struct {
	Result      entity.ActionResult `json:"result"`
	Observation *entity.PageContent `json:"observation,omitempty"`
}

// TaskService owns actor tasks and runs actions inside them.
type TaskService interface {
	CreateTask(title string) entity.TaskInfo
	GetTask(id entity.TaskID) (entity.TaskInfo, bool)
	ListTasks() []entity.TaskInfo
	Act(ctx context.Context, id entity.TaskID, a *action.Action) (*ActResult, error)
	ActInFocusedTab(ctx context.Context, a *action.Action) (*ActResult, error)
	StopTask(id entity.TaskID) error
	PauseTask(id entity.TaskID) error
	ResumeTask(ctx context.Context, id entity.TaskID) (*entity.PageContent, error)
	Observe(ctx context.Context, id entity.TaskID) (*entity.PageContent, error)
}
