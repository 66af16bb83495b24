package output

import (
	"time"

	"browser-actor/internal/domain/entity"
)

type MetricsPort interface {
	ObserveToolRequest(tool entity.ToolName, code entity.ResultCode, elapsed time.Duration)
	ObserveConversion(action string, ok bool)
}

type NopMetrics struct{}

func (NopMetrics) ObserveToolRequest(entity.ToolName, entity.ResultCode, time.Duration) {}
func (NopMetrics) ObserveConversion(string, bool)                                       {}
