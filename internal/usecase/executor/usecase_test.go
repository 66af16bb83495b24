package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"browser-actor/internal/actor/tools"
	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"
	"browser-actor/internal/infrastructure/journal"
	"browser-actor/internal/infrastructure/logger"
	"browser-actor/internal/infrastructure/sequence"
	"browser-actor/internal/testing/fake"
	"browser-actor/internal/usecase/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	mu        sync.Mutex
	responses []entity.Message
	requests  []output.ChatRequest
	err       error
}

func (s *scriptedLLM) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return &output.ChatResponse{Message: entity.Message{Role: entity.RoleAssistant, Content: "done"}}, nil
	}
	msg := s.responses[0]
	s.responses = s.responses[1:]
	return &output.ChatResponse{Message: msg}, nil
}

type reported struct {
	kind string
	code entity.ResultCode
}

type recordingReporter struct {
	mu      sync.Mutex
	actions []reported
}

func (r *recordingReporter) ReportAction(_ entity.TaskID, kind string, result entity.ActionResult, _ *entity.PageContent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, reported{kind: kind, code: result.Code})
}

func toolCall(id, name, args string) entity.Message {
	return entity.Message{
		Role:      entity.RoleAssistant,
		ToolCalls: []entity.ToolCall{{ID: id, Name: name, Arguments: args}},
	}
}

func newManager(t *testing.T, browser *fake.Browser) *task.Manager {
	runner := sequence.New(nil)
	t.Cleanup(runner.Close)
	cfg := tools.DefaultConfig()
	cfg.WaitDelay = 0
	return task.NewManager(browser, tools.NewFactory(browser, runner, cfg), journal.New(nil), runner, logger.NewNop(), nil, task.DefaultConfig())
}

func TestExecute_RunsToolCallsUntilAnswer(t *testing.T) {
	browser := fake.NewBrowser()
	tab := browser.OpenTab("about:blank")
	manager := newManager(t, browser)

	llm := &scriptedLLM{responses: []entity.Message{
		toolCall("1", "navigate", `{"url":"https://example.com"}`),
		toolCall("2", "teleport", `{}`),
		toolCall("3", "click", `{}`),
		{Role: entity.RoleAssistant, Content: "Example Domain"},
	}}
	reporter := &recordingReporter{}
	uc := New(llm, manager, logger.NewNop(), reporter, "system")

	result, err := uc.Execute(context.Background(), "open example.com")
	require.NoError(t, err)
	assert.Equal(t, "Example Domain", result.FinalAnswer)
	assert.Equal(t, 4, result.Iterations)
	assert.Equal(t, 3, result.Actions)
	require.Len(t, result.Steps, 3)
	assert.Equal(t, "navigate", result.Steps[0].Tool)
	assert.Equal(t, entity.ResultOk, result.Steps[0].Result.Code)
	assert.Equal(t, entity.ResultMalformedAction, result.Steps[1].Result.Code)
	require.NotNil(t, result.LastObservation)
	assert.Equal(t, "https://example.com", result.LastObservation.URL)
	assert.Equal(t, "https://example.com", tab.URL())

	info, ok := manager.GetTask(result.TaskID)
	require.True(t, ok)
	assert.Equal(t, entity.TaskStateStopped, info.State)

	assert.Equal(t, []reported{
		{kind: "navigate", code: entity.ResultOk},
		{kind: "click", code: entity.ResultMalformedAction},
	}, reporter.actions)

	require.Len(t, llm.requests, 4)
	first := llm.requests[0]
	assert.Equal(t, "system", first.Messages[0].Content)
	assert.Contains(t, first.Messages[1].Content, "URL: about:blank")
	assert.NotEmpty(t, first.Tools)

	last := llm.requests[3].Messages
	toolMsgs := make([]string, 0, 3)
	for _, m := range last {
		if m.Role == entity.RoleTool {
			toolMsgs = append(toolMsgs, m.Content)
		}
	}
	require.Len(t, toolMsgs, 3)
	assert.True(t, strings.HasPrefix(toolMsgs[0], "Result: Ok"))
	assert.Contains(t, toolMsgs[0], "URL: https://example.com")
	assert.Contains(t, toolMsgs[1], "unknown action")
	assert.True(t, strings.HasPrefix(toolMsgs[2], "Result: MalformedAction"))
}

func TestExecute_NoTabs(t *testing.T) {
	manager := newManager(t, fake.NewBrowser())
	llm := &scriptedLLM{}

	result, err := New(llm, manager, logger.NewNop(), nil, "system").Execute(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "done", result.FinalAnswer)
	assert.Contains(t, llm.requests[0].Messages[1].Content, "No tab is open yet.")
}

func TestExecute_LLMError(t *testing.T) {
	manager := newManager(t, fake.NewBrowser())
	llm := &scriptedLLM{err: errors.New("rate limited")}

	_, err := New(llm, manager, logger.NewNop(), nil, "system").Execute(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestFormatObservation(t *testing.T) {
	text := FormatObservation(&entity.PageContent{
		Tab:        entity.TabHandle{ID: 1, Generation: 1},
		URL:        "https://example.com",
		Title:      "Example",
		DocumentID: "doc-1",
		Nodes: []entity.UIElement{
			{NodeID: 4, Type: "button", Text: "Search", Role: "button"},
			{NodeID: 5, Type: "a", AriaLabel: "Home"},
		},
		Text: "Hello",
	})

	assert.Contains(t, text, "document_identifier: doc-1")
	assert.Contains(t, text, `[4] <button> "Search" role=button`)
	assert.Contains(t, text, `[5] <a> "Home"`)
	assert.Contains(t, text, "Page text:\nHello")
}
