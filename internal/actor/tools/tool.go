package tools

import (
	"context"
	"errors"
	"time"

	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"
)

// ResultCallback receives the outcome of an asynchronous tool step. It is
// always run on the owning sequence.
type ResultCallback func(entity.ActionResult)

// Tool executes one request against the browser. A tool is used for a
// single invocation: Validate, then TimeOfUseValidation, then Invoke.
type Tool interface {
	Name() entity.ToolName

	// Validate checks preconditions that may need the browser. done is
	// called exactly once.
	Validate(ctx context.Context, done ResultCallback)
	// TimeOfUseValidation runs right before Invoke and compares the live
	// page against the caller's last observation.
	TimeOfUseValidation(last *entity.PageContent) entity.ActionResult
	// Invoke performs the action. done is called exactly once.
	Invoke(ctx context.Context, done ResultCallback)
	// ObservationDelayer returns how to wait for the page to settle after
	// a successful Invoke, or nil.
	ObservationDelayer() ObservationDelayer

	JournalURL() string
	JournalEvent() string
	DebugString() string
}

// ObservationDelayer waits for external settle conditions and then calls
// done exactly once on the owning sequence.
type ObservationDelayer interface {
	Wait(ctx context.Context, entry output.PendingEntry, done func())
}

// toolBase carries what every tool needs to report back on the sequence.
type toolBase struct {
	taskID  entity.TaskID
	journal output.JournalPort
	runner  output.TaskRunner
	timeout time.Duration
	url     string
	event   string
}

func (b *toolBase) JournalURL() string   { return b.url }
func (b *toolBase) JournalEvent() string { return b.event }

func (b *toolBase) post(done ResultCallback, result entity.ActionResult) {
	b.runner.PostTask(func() { done(result) })
}

// async runs fn off the sequence and posts its result back.
func (b *toolBase) async(ctx context.Context, done ResultCallback, fn func(ctx context.Context) entity.ActionResult) {
	go func() {
		if b.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.timeout)
			defer cancel()
		}
		result := fn(ctx)
		b.post(done, result)
	}()
}

func (b *toolBase) log(event, details string) {
	b.journal.Log(b.url, b.taskID, event, details)
}

// noTimeOfUseCheck is embedded by tools whose action does not depend on
// what the caller observed.
type noTimeOfUseCheck struct{}

func (noTimeOfUseCheck) TimeOfUseValidation(*entity.PageContent) entity.ActionResult {
	return entity.OkResult()
}

// resultFromError maps adapter errors to result codes.
func resultFromError(err error) entity.ActionResult {
	if err == nil {
		return entity.OkResult()
	}
	code := entity.ResultError
	switch {
	case errors.Is(err, entity.ErrTabClosed):
		code = entity.ResultTabWentAway
	case errors.Is(err, entity.ErrWindowNotFound):
		code = entity.ResultWindowWentAway
	case errors.Is(err, entity.ErrNodeNotFound):
		code = entity.ResultInvalidDOMNodeID
	case errors.Is(err, entity.ErrDocumentChanged):
		code = entity.ResultFrameWentAway
	case errors.Is(err, entity.ErrNoHistoryEntry):
		code = entity.ResultHistoryNoEntry
	case errors.Is(err, entity.ErrNoSuchOption):
		code = entity.ResultSelectNoSuchOption
	case errors.Is(err, entity.ErrInvalidURL):
		code = entity.ResultNavigateInvalidURL
	case errors.Is(err, context.DeadlineExceeded):
		code = entity.ResultToolTimeout
	}
	return entity.NewActionResult(code, err.Error())
}
