package tools

import (
	"context"
	"time"

	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"
)

// PageStabilityDelayer waits for the tab to finish loading and go idle.
// A tab that has gone away counts as settled.
type PageStabilityDelayer struct {
	tabs    output.TabRegistry
	tab     entity.TabHandle
	runner  output.TaskRunner
	timeout time.Duration
}

func NewPageStabilityDelayer(tabs output.TabRegistry, tab entity.TabHandle, runner output.TaskRunner, timeout time.Duration) *PageStabilityDelayer {
	return &PageStabilityDelayer{tabs: tabs, tab: tab, runner: runner, timeout: timeout}
}

func (d *PageStabilityDelayer) Wait(ctx context.Context, entry output.PendingEntry, done func()) {
	tab, ok := d.tabs.Lookup(d.tab)
	if !ok {
		entry.Log("ObservationDelay", "tab went away before settling")
		d.runner.PostTask(done)
		return
	}

	entry.Log("ObservationDelay", "waiting for page to settle")
	go func() {
		start := time.Now()
		if err := tab.WaitStable(ctx, d.timeout); err != nil {
			entry.Log("ObservationDelay", "gave up waiting: "+err.Error())
		} else {
			entry.Log("ObservationDelay", "settled after "+time.Since(start).Round(time.Millisecond).String())
		}
		d.runner.PostTask(done)
	}()
}
