// Package task keeps actor tasks: each task owns a tool controller, its
// current tab and its last observation.
package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"browser-actor/internal/actor"
	"browser-actor/internal/actor/action"
	"browser-actor/internal/actor/tools"
	"browser-actor/internal/application/port/input"
	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"
)

var _ input.TaskService = (*Manager)(nil)

type Config struct {
	// ObserveAfterAct re-reads the task's tab after every successful
	// action.
	ObserveAfterAct bool
	Observe         entity.ObserveOptions
	ObserveTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		ObserveAfterAct: true,
		Observe:         entity.ObserveOptions{MaxText: 20000},
		ObserveTimeout:  15 * time.Second,
	}
}

type task struct {
	info       entity.TaskInfo
	last       *entity.PageContent
	controller *actor.Controller
}

type Manager struct {
	tabs    output.TabRegistry
	factory actor.ToolFactory
	journal output.JournalPort
	runner  output.TaskRunner
	logger  output.LoggerPort
	metrics output.MetricsPort
	config  Config

	mu     sync.Mutex
	nextID entity.TaskID
	tasks  map[entity.TaskID]*task
}

func NewManager(
	tabs output.TabRegistry,
	factory actor.ToolFactory,
	journal output.JournalPort,
	runner output.TaskRunner,
	logger output.LoggerPort,
	metrics output.MetricsPort,
	config Config,
) *Manager {
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	return &Manager{
		tabs:    tabs,
		factory: factory,
		journal: journal,
		runner:  runner,
		logger:  logger,
		metrics: metrics,
		config:  config,
		tasks:   make(map[entity.TaskID]*task),
	}
}

func (m *Manager) CreateTask(title string) entity.TaskInfo {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	t := &task{
		info:       entity.TaskInfo{ID: id, Title: title, State: entity.TaskStateCreated},
		controller: actor.NewController(id, m.factory, m.journal, m.runner, m.logger, m.metrics),
	}
	m.tasks[id] = t
	info := t.info
	m.mu.Unlock()

	m.journal.Log("", id, "CreateActorTask", title)
	m.logger.Info("Created task", "task", id, "title", title)
	return info
}

func (m *Manager) GetTask(id entity.TaskID) (entity.TaskInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return entity.TaskInfo{}, false
	}
	return t.info, true
}

func (m *Manager) ListTasks() []entity.TaskInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	infos := make([]entity.TaskInfo, 0, len(m.tasks))
	for _, t := range m.tasks {
		infos = append(infos, t.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Act converts a and runs it in the task, blocking until the controller
// reports. Failures of the action itself come back as the result; the
// error is only set when ctx ends first.
func (m *Manager) Act(ctx context.Context, id entity.TaskID, a *action.Action) (*input.ActResult, error) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return &input.ActResult{Result: entity.NewActionResult(entity.ResultTaskWentAway, fmt.Sprintf("task %d does not exist", id))}, nil
	}
	switch t.info.State {
	case entity.TaskStateStopped:
		m.mu.Unlock()
		return &input.ActResult{Result: entity.NewActionResult(entity.ResultTaskWentAway, fmt.Sprintf("task %d was stopped", id))}, nil
	case entity.TaskStatePaused:
		m.mu.Unlock()
		return &input.ActResult{Result: entity.NewActionResult(entity.ResultTaskPaused, fmt.Sprintf("task %d is paused", id))}, nil
	}
	fallback := t.info.Tab
	last := t.last
	m.mu.Unlock()

	if fallback.IsNull() {
		if active, ok := m.tabs.ActiveTab(); ok {
			fallback = active.Handle()
		}
	}

	req := action.CreateToolRequest(ctx, a, fallback, m.tabs)
	m.metrics.ObserveConversion(a.Kind(), req != nil)
	if req == nil {
		result := entity.NewActionResult(entity.ResultMalformedAction, "action could not be converted: "+describe(a))
		m.journal.Log("", id, "MalformedAction", describe(a))
		return &input.ActResult{Result: result}, nil
	}

	if res := m.beginActing(t); !res.IsOk() {
		return &input.ActResult{Result: res}, nil
	}
	result, err := m.invoke(ctx, t, req, last)
	if err != nil {
		m.finishActing(t, nil, entity.NullTabHandle)
		return nil, err
	}

	out := &input.ActResult{Result: result}
	if result.Code == entity.ResultActorBusy {
		// The request in flight owns the task state.
		return out, nil
	}
	if !result.IsOk() {
		m.finishActing(t, nil, entity.NullTabHandle)
		return out, nil
	}

	handle, tab := m.followTab(req)
	if tab != nil && m.config.ObserveAfterAct {
		obs, err := m.observe(ctx, tab)
		if err != nil {
			m.logger.Warn("Observation after act failed", "task", id, "error", err)
		} else {
			out.Observation = obs
		}
	}
	m.finishActing(t, out.Observation, handle)
	return out, nil
}

func (m *Manager) invoke(ctx context.Context, t *task, req tools.ToolRequest, last *entity.PageContent) (entity.ActionResult, error) {
	ch := make(chan entity.ActionResult, 1)
	m.runner.PostTask(func() {
		t.controller.Invoke(ctx, req, last, func(r entity.ActionResult) { ch <- r })
	})
	select {
	case r := <-ch:
		return r, nil
	case <-ctx.Done():
		return entity.ActionResult{}, fmt.Errorf("waiting for %s: %w", req, ctx.Err())
	}
}

// followTab picks the tab the task continues in after req succeeded.
func (m *Manager) followTab(req tools.ToolRequest) (entity.TabHandle, output.Tab) {
	if handle, ok := tools.TabOf(req); ok {
		if _, closing := req.(*tools.CloseTabToolRequest); !closing {
			if tab, ok := m.tabs.Lookup(handle); ok {
				return handle, tab
			}
		}
	}
	if tab, ok := m.tabs.ActiveTab(); ok {
		return tab.Handle(), tab
	}
	return entity.NullTabHandle, nil
}

// beginActing marks t as acting unless a pause or stop got in since Act
// read its state.
func (m *Manager) beginActing(t *task) entity.ActionResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch t.info.State {
	case entity.TaskStateStopped:
		return entity.NewActionResult(entity.ResultTaskWentAway, fmt.Sprintf("task %d was stopped", t.info.ID))
	case entity.TaskStatePaused:
		return entity.NewActionResult(entity.ResultTaskPaused, fmt.Sprintf("task %d is paused", t.info.ID))
	}
	t.info.State = entity.TaskStateActing
	return entity.OkResult()
}

// finishActing records what the action left behind. A pause or stop
// requested mid-action wins over the return to ready, and a stopped task
// keeps nothing.
func (m *Manager) finishActing(t *task, obs *entity.PageContent, tab entity.TabHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.info.State == entity.TaskStateStopped {
		return
	}
	if obs != nil {
		t.last = obs
	}
	if !tab.IsNull() {
		t.info.Tab = tab
	}
	if t.info.State == entity.TaskStateActing {
		t.info.State = entity.TaskStateReady
	}
}

func (m *Manager) observe(ctx context.Context, tab output.Tab) (*entity.PageContent, error) {
	if m.config.ObserveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.ObserveTimeout)
		defer cancel()
	}
	return tab.Observe(ctx, m.config.Observe)
}

// Observe reads the task's current tab and stores the result as the task's
// last observation.
func (m *Manager) Observe(ctx context.Context, id entity.TaskID) (*entity.PageContent, error) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("observe task %d: %w", id, entity.ErrTaskNotFound)
	}
	if t.info.State == entity.TaskStateStopped {
		m.mu.Unlock()
		return nil, fmt.Errorf("observe task %d: %w", id, entity.ErrTaskStopped)
	}
	handle := t.info.Tab
	m.mu.Unlock()

	var tab output.Tab
	if !handle.IsNull() {
		tab, ok = m.tabs.Lookup(handle)
	}
	if tab == nil {
		if tab, ok = m.tabs.ActiveTab(); !ok {
			return nil, fmt.Errorf("observe task %d: %w", id, entity.ErrTabClosed)
		}
	}

	obs, err := m.observe(ctx, tab)
	if err != nil {
		return nil, fmt.Errorf("observe task %d: %w", id, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.info.State == entity.TaskStateStopped {
		return nil, fmt.Errorf("observe task %d: %w", id, entity.ErrTaskStopped)
	}
	t.last = obs
	t.info.Tab = tab.Handle()
	return obs, nil
}

// ActInFocusedTab runs a in a throwaway task bound to the focused tab.
func (m *Manager) ActInFocusedTab(ctx context.Context, a *action.Action) (*input.ActResult, error) {
	tab, ok := m.tabs.ActiveTab()
	if !ok {
		return &input.ActResult{Result: entity.NewActionResult(entity.ResultTabWentAway, "no focused tab")}, nil
	}
	info := m.CreateTask("act in focused tab")
	m.mu.Lock()
	m.tasks[info.ID].info.Tab = tab.Handle()
	m.mu.Unlock()
	defer func() {
		_ = m.StopTask(info.ID)
	}()
	return m.Act(ctx, info.ID, a)
}

func (m *Manager) StopTask(id entity.TaskID) error {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("stop task %d: %w", id, entity.ErrTaskNotFound)
	}
	t.info.State = entity.TaskStateStopped
	t.last = nil
	m.mu.Unlock()

	m.journal.Log("", id, "StopActorTask", "")
	m.logger.Info("Stopped task", "task", id)
	return nil
}

func (m *Manager) PauseTask(id entity.TaskID) error {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("pause task %d: %w", id, entity.ErrTaskNotFound)
	}
	if t.info.State == entity.TaskStateStopped {
		m.mu.Unlock()
		return fmt.Errorf("pause task %d: %w", id, entity.ErrTaskStopped)
	}
	t.info.State = entity.TaskStatePaused
	m.mu.Unlock()

	m.journal.Log("", id, "PauseActorTask", "")
	return nil
}

// ResumeTask returns a paused task to ready and hands back a fresh
// observation of its tab, which may be nil when the task has no tab yet.
func (m *Manager) ResumeTask(ctx context.Context, id entity.TaskID) (*entity.PageContent, error) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("resume task %d: %w", id, entity.ErrTaskNotFound)
	}
	if t.info.State == entity.TaskStateStopped {
		m.mu.Unlock()
		return nil, fmt.Errorf("resume task %d: %w", id, entity.ErrTaskStopped)
	}
	t.info.State = entity.TaskStateReady
	handle := t.info.Tab
	m.mu.Unlock()

	m.journal.Log("", id, "ResumeActorTask", "")
	if handle.IsNull() {
		return nil, nil
	}
	if _, ok := m.tabs.Lookup(handle); !ok {
		return nil, nil
	}
	return m.Observe(ctx, id)
}

func describe(a *action.Action) string {
	data, err := action.MarshalAction(a)
	if err != nil {
		return a.Kind()
	}
	return string(data)
}
