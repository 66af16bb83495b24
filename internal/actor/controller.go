// Package actor drives tool requests through creation, validation,
// time-of-use checking, invocation and observation delay, one at a time.
package actor

import (
	"context"
	"time"

	"browser-actor/internal/actor/tools"
	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"
)

type State int

const (
	StateIdle State = iota
	StateCreating
	StateValidating
	StateTimeOfUseChecking
	StateInvoking
	StateObservationDelaying
	StateCompleting
)

var stateNames = [...]string{
	StateIdle:                "Idle",
	StateCreating:            "Creating",
	StateValidating:          "Validating",
	StateTimeOfUseChecking:   "TimeOfUseChecking",
	StateInvoking:            "Invoking",
	StateObservationDelaying: "ObservationDelaying",
	StateCompleting:          "Completing",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// ToolFactory is satisfied by *tools.Factory.
type ToolFactory interface {
	CreateTool(taskID entity.TaskID, journal output.JournalPort, req tools.ToolRequest) (tools.Tool, entity.ActionResult)
}

// activeState exists from a successful CreateTool until the result is
// delivered.
type activeState struct {
	ctx     context.Context
	tool    tools.Tool
	done    tools.ResultCallback
	entry   output.PendingEntry
	last    *entity.PageContent
	delayer tools.ObservationDelayer
	started time.Time
}

// Controller runs at most one tool at a time for a task. All methods, and
// all callbacks it hands out, run on the runner's sequence.
type Controller struct {
	taskID  entity.TaskID
	factory ToolFactory
	journal output.JournalPort
	runner  output.TaskRunner
	logger  output.LoggerPort
	metrics output.MetricsPort

	state  State
	active *activeState
}

func NewController(
	taskID entity.TaskID,
	factory ToolFactory,
	journal output.JournalPort,
	runner output.TaskRunner,
	logger output.LoggerPort,
	metrics output.MetricsPort,
) *Controller {
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	return &Controller{
		taskID:  taskID,
		factory: factory,
		journal: journal,
		runner:  runner,
		logger:  logger.WithField("task", taskID),
		metrics: metrics,
	}
}

func (c *Controller) State() State {
	return c.state
}

// IsActive reports whether a request is in flight.
func (c *Controller) IsActive() bool {
	return c.active != nil
}

// Invoke runs req and reports its result through done exactly once, always
// from a posted task. last is the caller's most recent observation and may
// be nil. A call made while another request is in flight is rejected with
// ActorBusy and does not disturb the running one.
func (c *Controller) Invoke(ctx context.Context, req tools.ToolRequest, last *entity.PageContent, done tools.ResultCallback) {
	if c.active != nil {
		result := entity.NewActionResult(entity.ResultActorBusy, "another tool request is in flight")
		c.journal.Log("", c.taskID, "ActorBusy", req.String())
		c.logger.Warn("Rejected tool request", "request", req.String(), "state", c.state.String())
		c.metrics.ObserveToolRequest(req.Name(), result.Code, 0)
		c.runner.PostTask(func() { done(result) })
		return
	}

	started := time.Now()
	c.state = StateCreating
	tool, result := c.factory.CreateTool(c.taskID, c.journal, req)
	if !result.IsOk() {
		c.journal.Log("", c.taskID, "CreateToolFailed", req.String()+": "+result.String())
		c.logger.Info("Tool creation failed", "request", req.String(), "result", result.String())
		c.metrics.ObserveToolRequest(req.Name(), result.Code, time.Since(started))
		c.state = StateIdle
		c.runner.PostTask(func() { done(result) })
		return
	}

	st := &activeState{
		ctx:     ctx,
		tool:    tool,
		done:    done,
		entry:   c.journal.CreatePendingAsyncEntry(tool.JournalURL(), c.taskID, tool.JournalEvent(), tool.DebugString()),
		last:    last,
		started: started,
	}
	c.active = st
	c.state = StateValidating
	c.logger.Debug("Validating tool", "tool", tool.DebugString())
	tool.Validate(ctx, func(result entity.ActionResult) { c.validationComplete(st, result) })
}

func (c *Controller) validationComplete(st *activeState, result entity.ActionResult) {
	if c.active != st {
		return
	}
	if !result.IsOk() {
		c.complete(st, result)
		return
	}

	c.state = StateTimeOfUseChecking
	if result := st.tool.TimeOfUseValidation(st.last); !result.IsOk() {
		c.complete(st, result)
		return
	}

	st.delayer = st.tool.ObservationDelayer()
	c.state = StateInvoking
	st.tool.Invoke(st.ctx, func(result entity.ActionResult) { c.invokeComplete(st, result) })
}

func (c *Controller) invokeComplete(st *activeState, result entity.ActionResult) {
	if c.active != st {
		return
	}
	if st.delayer == nil || !result.IsOk() {
		c.complete(st, result)
		return
	}

	c.state = StateObservationDelaying
	st.delayer.Wait(st.ctx, st.entry, func() { c.complete(st, result) })
}

func (c *Controller) complete(st *activeState, result entity.ActionResult) {
	if c.active != st {
		return
	}
	c.state = StateCompleting
	st.delayer = nil
	st.entry.EndEntry(result.String())

	elapsed := time.Since(st.started)
	c.metrics.ObserveToolRequest(st.tool.Name(), result.Code, elapsed)
	c.logger.Debug("Tool request finished",
		"tool", st.tool.DebugString(),
		"result", result.String(),
		"elapsed", elapsed,
	)

	c.active = nil
	c.state = StateIdle
	done := st.done
	c.runner.PostTask(func() { done(result) })
}
