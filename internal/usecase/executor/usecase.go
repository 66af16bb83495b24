package executor

import (
	"context"
	"fmt"
	"strings"

	"browser-actor/internal/actor/action"
	"browser-actor/internal/application/port/input"
	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"
)

var _ input.TaskExecutor = (*UseCase)(nil)

const (
	maxIterations     = 50
	maxObservationLen = 20000
)

// UseCase lets a model drive one actor task through tool calls until it
// answers without calling a tool.
type UseCase struct {
	llm          output.LLMPort
	tasks        input.TaskService
	logger       output.LoggerPort
	reporter     output.ActionReporter
	systemPrompt string
}

func New(
	llm output.LLMPort,
	tasks input.TaskService,
	logger output.LoggerPort,
	reporter output.ActionReporter,
	systemPrompt string,
) *UseCase {
	if reporter == nil {
		reporter = output.NopReporter{}
	}
	return &UseCase{
		llm:          llm,
		tasks:        tasks,
		logger:       logger,
		reporter:     reporter,
		systemPrompt: systemPrompt,
	}
}

func (uc *UseCase) Execute(ctx context.Context, goal string) (*input.ExecuteResult, error) {
	info := uc.tasks.CreateTask(goal)
	defer func() {
		if err := uc.tasks.StopTask(info.ID); err != nil {
			uc.logger.Warn("Failed to stop task", "task", info.ID, "error", err)
		}
	}()

	initial := "No tab is open yet."
	if obs, err := uc.tasks.Observe(ctx, info.ID); err == nil {
		initial = FormatObservation(obs)
	} else {
		uc.logger.Debug("Initial observation unavailable", "task", info.ID, "error", err)
	}

	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: uc.systemPrompt},
		{Role: entity.RoleUser, Content: goal + "\n\n" + initial},
	}

	toolDefs := action.ToolDefinitions()
	result := &input.ExecuteResult{TaskID: info.ID}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		uc.logger.Debug("Starting iteration", "task", info.ID, "iteration", iteration)

		resp, err := uc.llm.Chat(ctx, output.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: 0.0,
		})
		if err != nil {
			return nil, fmt.Errorf("llm request failed: %w", err)
		}

		messages = append(messages, resp.Message)
		result.Iterations = iteration

		if len(resp.Message.ToolCalls) == 0 {
			result.FinalAnswer = resp.Message.Content
			return result, nil
		}

		for _, tc := range resp.Message.ToolCalls {
			observation, out, err := uc.executeAction(ctx, info.ID, tc)
			if err != nil {
				return nil, err
			}
			result.Actions++
			result.Steps = append(result.Steps, entity.Step{Tool: tc.Name, Result: out.Result})
			if out.Observation != nil {
				result.LastObservation = out.Observation
			}

			messages = append(messages, entity.Message{
				Role:       entity.RoleTool,
				ToolCallID: tc.ID,
				Name:       tc.Name,
				Content:    observation,
			})
		}
	}

	return nil, fmt.Errorf("max iterations (%d) exceeded", maxIterations)
}

// executeAction returns the text the model sees for one call. Only a
// context error aborts the loop.
func (uc *UseCase) executeAction(ctx context.Context, id entity.TaskID, tc entity.ToolCall) (string, *input.ActResult, error) {
	a, err := action.FromToolCall(tc.Name, tc.Arguments)
	if err != nil {
		uc.logger.Warn("Bad tool call", "name", tc.Name, "error", err)
		return "Error: " + err.Error(), &input.ActResult{Result: entity.NewActionResult(entity.ResultMalformedAction, err.Error())}, nil
	}

	uc.logger.Info("Executing action", "task", id, "name", tc.Name, "args", tc.Arguments)

	out, err := uc.tasks.Act(ctx, id, a)
	if err != nil {
		return "", nil, fmt.Errorf("action %s: %w", tc.Name, err)
	}
	uc.reporter.ReportAction(id, tc.Name, out.Result, out.Observation)

	var b strings.Builder
	b.WriteString("Result: ")
	b.WriteString(out.Result.Code.String())
	if out.Result.Message != "" {
		b.WriteString(" (" + out.Result.Message + ")")
	}
	if out.Observation != nil {
		b.WriteString("\n\n")
		b.WriteString(FormatObservation(out.Observation))
	}

	text := b.String()
	if len(text) > maxObservationLen {
		text = text[:maxObservationLen] + "\n... (truncated)"
	}
	uc.logger.Debug("Action completed", "name", tc.Name, "result", out.Result.String(), "len", len(text))
	return text, out, nil
}

// FormatObservation renders a page observation as model input.
func FormatObservation(obs *entity.PageContent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tab: %s\nURL: %s\nTitle: %s\ndocument_identifier: %s\n", obs.Tab, obs.URL, obs.Title, obs.DocumentID)

	if len(obs.Nodes) > 0 {
		b.WriteString("\nInteractive elements:\n")
		for _, n := range obs.Nodes {
			label := n.Text
			if label == "" {
				label = n.AriaLabel
			}
			fmt.Fprintf(&b, "[%d] <%s> %q", n.NodeID, n.Type, label)
			if n.Role != "" {
				fmt.Fprintf(&b, " role=%s", n.Role)
			}
			b.WriteString("\n")
		}
	}
	if obs.Text != "" {
		b.WriteString("\nPage text:\n")
		b.WriteString(obs.Text)
		b.WriteString("\n")
	}
	return b.String()
}
