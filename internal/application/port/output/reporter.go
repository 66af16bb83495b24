package output

import "browser-actor/internal/domain/entity"

// ActionReporter is told about every action a driver runs.
type ActionReporter interface {
	ReportAction(taskID entity.TaskID, kind string, result entity.ActionResult, obs *entity.PageContent)
}

type NopReporter struct{}

func (NopReporter) ReportAction(entity.TaskID, string, entity.ActionResult, *entity.PageContent) {}
