package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"browser-actor/internal/actor/action"
	"browser-actor/internal/actor/tools"
	"browser-actor/internal/domain/entity"
	"browser-actor/internal/infrastructure/journal"
	"browser-actor/internal/infrastructure/logger"
	"browser-actor/internal/infrastructure/sequence"
	"browser-actor/internal/testing/fake"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	browser  *fake.Browser
	manager  *Manager
	runner   *sequence.Runner
	recorder *journal.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	runner := sequence.New(nil)
	t.Cleanup(runner.Close)

	j := journal.New(nil)
	rec := &journal.Recorder{}
	j.AddObserver(rec)

	browser := fake.NewBrowser()
	cfg := tools.DefaultConfig()
	cfg.WaitDelay = 0
	factory := tools.NewFactory(browser, runner, cfg)
	m := NewManager(browser, factory, j, runner, logger.NewNop(), nil, DefaultConfig())
	return &fixture{browser: browser, manager: m, runner: runner, recorder: rec}
}

// inFlight reports, from the sequence, whether the task's controller is
// running a request.
func (f *fixture) inFlight(id entity.TaskID) bool {
	f.manager.mu.Lock()
	c := f.manager.tasks[id].controller
	f.manager.mu.Unlock()

	ch := make(chan bool, 1)
	f.runner.PostTask(func() { ch <- c.IsActive() })
	return <-ch
}

func (f *fixture) actAsync(id entity.TaskID, a *action.Action) <-chan entity.ActionResult {
	ch := make(chan entity.ActionResult, 1)
	go func() {
		out, err := f.manager.Act(context.Background(), id, a)
		if err != nil {
			ch <- entity.NewActionResult(entity.ResultError, err.Error())
			return
		}
		ch <- out.Result
	}()
	return ch
}

func navigate(url string) *action.Action {
	return &action.Action{Navigate: &action.NavigateAction{URL: url}}
}

func clickNode(doc string, id int32) *action.Action {
	return &action.Action{Click: &action.ClickAction{Target: &action.Target{DocumentIdentifier: doc, ContentNodeID: &id}}}
}

func moveTo(x, y float64) *action.Action {
	return &action.Action{MoveMouse: &action.MoveMouseAction{Target: &action.Target{Coordinate: &entity.Point{X: x, Y: y}}}}
}

func TestManager_CreateAndList(t *testing.T) {
	f := newFixture(t)

	a := f.manager.CreateTask("first")
	b := f.manager.CreateTask("second")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, entity.TaskStateCreated, a.State)

	got, ok := f.manager.GetTask(b.ID)
	require.True(t, ok)
	assert.Equal(t, "second", got.Title)

	_, ok = f.manager.GetTask(99)
	assert.False(t, ok)

	list := f.manager.ListTasks()
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, []string{"CreateActorTask", "CreateActorTask"}, f.recorder.Events(journal.KindInstant))
}

func TestManager_ActUsesActiveTabAndObserves(t *testing.T) {
	f := newFixture(t)
	tab := f.browser.OpenTab("about:blank")
	info := f.manager.CreateTask("browse")

	out, err := f.manager.Act(context.Background(), info.ID, navigate("https://example.com"))
	require.NoError(t, err)
	require.True(t, out.Result.IsOk(), out.Result.String())
	require.NotNil(t, out.Observation)
	assert.Equal(t, "https://example.com", out.Observation.URL)
	assert.Equal(t, tab.DocumentID(), out.Observation.DocumentID)

	got, _ := f.manager.GetTask(info.ID)
	assert.Equal(t, entity.TaskStateReady, got.State)
	assert.Equal(t, tab.Handle(), got.Tab)
	assert.Equal(t, []string{"Navigate"}, f.recorder.Events(journal.KindBegin))
	assert.Equal(t, []string{"Navigate"}, f.recorder.Events(journal.KindEnd))
}

func TestManager_MalformedAction(t *testing.T) {
	f := newFixture(t)
	f.browser.OpenTab("about:blank")
	info := f.manager.CreateTask("bad")

	out, err := f.manager.Act(context.Background(), info.ID, &action.Action{Click: &action.ClickAction{}})
	require.NoError(t, err)
	assert.Equal(t, entity.ResultMalformedAction, out.Result.Code)
	assert.Contains(t, f.recorder.Events(journal.KindInstant), "MalformedAction")
	assert.Empty(t, f.recorder.Events(journal.KindBegin))
}

func TestManager_NoTabIsMalformed(t *testing.T) {
	f := newFixture(t)
	info := f.manager.CreateTask("no tabs")

	out, err := f.manager.Act(context.Background(), info.ID, navigate("https://example.com"))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultMalformedAction, out.Result.Code)
}

func TestManager_TimeOfUseAgainstLastObservation(t *testing.T) {
	f := newFixture(t)
	tab := f.browser.OpenTab("https://example.com")
	tab.AddNode(entity.UIElement{NodeID: 5, Type: "button"})
	info := f.manager.CreateTask("click")

	obs, err := f.manager.Observe(context.Background(), info.ID)
	require.NoError(t, err)
	doc := obs.DocumentID

	out, err := f.manager.Act(context.Background(), info.ID, clickNode(doc, 5))
	require.NoError(t, err)
	require.True(t, out.Result.IsOk(), out.Result.String())

	tab.AddNode(entity.UIElement{NodeID: 6, Type: "link"})
	out, err = f.manager.Act(context.Background(), info.ID, clickNode(doc, 6))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultObservedTargetElementChanged, out.Result.Code)

	tab.Reload()
	out, err = f.manager.Act(context.Background(), info.ID, moveTo(1, 1))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultObservedPageChanged, out.Result.Code)

	out, err = f.manager.Act(context.Background(), info.ID, clickNode(doc, 5))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultFrameWentAway, out.Result.Code)
}

func TestManager_PauseResumeStop(t *testing.T) {
	f := newFixture(t)
	tab := f.browser.OpenTab("https://example.com")
	info := f.manager.CreateTask("lifecycle")

	require.NoError(t, f.manager.PauseTask(info.ID))
	out, err := f.manager.Act(context.Background(), info.ID, navigate("https://example.org"))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultTaskPaused, out.Result.Code)
	assert.Equal(t, "https://example.com", tab.URL())

	obs, err := f.manager.ResumeTask(context.Background(), info.ID)
	require.NoError(t, err)
	assert.Nil(t, obs, "task has no tab yet")

	out, err = f.manager.Act(context.Background(), info.ID, navigate("https://example.org"))
	require.NoError(t, err)
	require.True(t, out.Result.IsOk())

	require.NoError(t, f.manager.PauseTask(info.ID))
	obs, err = f.manager.ResumeTask(context.Background(), info.ID)
	require.NoError(t, err)
	require.NotNil(t, obs)
	assert.Equal(t, "https://example.org", obs.URL)

	require.NoError(t, f.manager.StopTask(info.ID))
	out, err = f.manager.Act(context.Background(), info.ID, navigate("https://example.net"))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultTaskWentAway, out.Result.Code)

	assert.ErrorIs(t, f.manager.PauseTask(info.ID), entity.ErrTaskStopped)
	_, err = f.manager.ResumeTask(context.Background(), info.ID)
	assert.ErrorIs(t, err, entity.ErrTaskStopped)

	events := f.recorder.Events(journal.KindInstant)
	assert.Contains(t, events, "PauseActorTask")
	assert.Contains(t, events, "ResumeActorTask")
	assert.Contains(t, events, "StopActorTask")
}

func TestManager_UnknownTask(t *testing.T) {
	f := newFixture(t)

	out, err := f.manager.Act(context.Background(), 42, navigate("https://example.com"))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultTaskWentAway, out.Result.Code)

	assert.ErrorIs(t, f.manager.StopTask(42), entity.ErrTaskNotFound)
	assert.ErrorIs(t, f.manager.PauseTask(42), entity.ErrTaskNotFound)
	_, err = f.manager.ResumeTask(context.Background(), 42)
	assert.ErrorIs(t, err, entity.ErrTaskNotFound)
	_, err = f.manager.Observe(context.Background(), 42)
	assert.ErrorIs(t, err, entity.ErrTaskNotFound)
}

func TestManager_CloseTabMovesToActiveTab(t *testing.T) {
	f := newFixture(t)
	first := f.browser.OpenTab("https://one.example")
	second := f.browser.OpenTab("https://two.example")
	info := f.manager.CreateTask("tabs")

	out, err := f.manager.Act(context.Background(), info.ID, &action.Action{CloseTab: &action.TabAction{}})
	require.NoError(t, err)
	require.True(t, out.Result.IsOk(), out.Result.String())

	_, ok := f.browser.Lookup(second.Handle())
	assert.False(t, ok)
	got, _ := f.manager.GetTask(info.ID)
	assert.Equal(t, first.Handle(), got.Tab)
	require.NotNil(t, out.Observation)
	assert.Equal(t, "https://one.example", out.Observation.URL)
}

func TestManager_ActInFocusedTab(t *testing.T) {
	f := newFixture(t)
	tab := f.browser.OpenTab("https://example.com")

	out, err := f.manager.ActInFocusedTab(context.Background(), navigate("https://example.org"))
	require.NoError(t, err)
	require.True(t, out.Result.IsOk())
	assert.Equal(t, "https://example.org", tab.URL())

	tasks := f.manager.ListTasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, entity.TaskStateStopped, tasks[0].State)
}

func TestManager_ActInFocusedTabWithoutTabs(t *testing.T) {
	f := newFixture(t)

	out, err := f.manager.ActInFocusedTab(context.Background(), navigate("https://example.org"))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultTabWentAway, out.Result.Code)
	assert.Empty(t, f.manager.ListTasks())
}

func TestManager_ActReturnsWhenContextEnds(t *testing.T) {
	f := newFixture(t)
	tab := f.browser.OpenTab("https://example.com")
	release := tab.Hold()
	defer release()
	info := f.manager.CreateTask("slow")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.manager.Act(ctx, info.ID, moveTo(1, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	got, _ := f.manager.GetTask(info.ID)
	assert.Equal(t, entity.TaskStateReady, got.State)
}

func TestManager_BusyActLeavesStateAlone(t *testing.T) {
	f := newFixture(t)
	tab := f.browser.OpenTab("https://example.com")
	release := tab.Hold()
	defer release()
	info := f.manager.CreateTask("overlap")

	first := f.actAsync(info.ID, moveTo(1, 1))
	require.Eventually(t, func() bool { return f.inFlight(info.ID) }, time.Second, 5*time.Millisecond)

	out, err := f.manager.Act(context.Background(), info.ID, moveTo(2, 2))
	require.NoError(t, err)
	assert.Equal(t, entity.ResultActorBusy, out.Result.Code)

	got, _ := f.manager.GetTask(info.ID)
	assert.Equal(t, entity.TaskStateActing, got.State)

	release()
	assert.Equal(t, entity.ResultOk, (<-first).Code)
	got, _ = f.manager.GetTask(info.ID)
	assert.Equal(t, entity.TaskStateReady, got.State)
	assert.Equal(t, tab.Handle(), got.Tab)
}

func TestManager_StopDuringActKeepsNothing(t *testing.T) {
	f := newFixture(t)
	tab := f.browser.OpenTab("https://example.com")
	release := tab.Hold()
	defer release()
	info := f.manager.CreateTask("stopped mid-act")

	done := f.actAsync(info.ID, moveTo(1, 1))
	require.Eventually(t, func() bool { return f.inFlight(info.ID) }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.manager.StopTask(info.ID))
	release()
	<-done

	got, _ := f.manager.GetTask(info.ID)
	assert.Equal(t, entity.TaskStateStopped, got.State)
	assert.True(t, got.Tab.IsNull())
	f.manager.mu.Lock()
	assert.Nil(t, f.manager.tasks[info.ID].last)
	f.manager.mu.Unlock()
}

func TestManager_ObserveStoppedTask(t *testing.T) {
	f := newFixture(t)
	f.browser.OpenTab("https://example.com")
	info := f.manager.CreateTask("observe")

	obs, err := f.manager.Observe(context.Background(), info.ID)
	require.NoError(t, err)
	require.NotNil(t, obs)

	require.NoError(t, f.manager.StopTask(info.ID))
	_, err = f.manager.Observe(context.Background(), info.ID)
	assert.ErrorIs(t, err, entity.ErrTaskStopped)

	f.manager.mu.Lock()
	assert.Nil(t, f.manager.tasks[info.ID].last)
	f.manager.mu.Unlock()
}
