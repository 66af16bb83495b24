package evaluator

import (
	"context"
	"fmt"
	"strings"

	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxPageText = 4000

// Evaluator asks a model whether an agent run reached its goal.
type Evaluator struct {
	llm    output.LLMPort
	logger output.LoggerPort
}

func New(llm output.LLMPort, logger output.LoggerPort) *Evaluator {
	return &Evaluator{
		llm:    llm,
		logger: logger,
	}
}

func (e *Evaluator) Evaluate(ctx context.Context, criteria entity.EvaluationCriteria) (*entity.EvaluationResult, error) {
	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: evaluationPrompt},
		{Role: entity.RoleUser, Content: buildRunReport(criteria)},
	}

	resp, err := e.llm.Chat(ctx, output.ChatRequest{
		Messages:    messages,
		Temperature: 0.0,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluation llm request failed: %w", err)
	}

	result, err := parseEvaluationResponse(resp.Message.Content)
	if err != nil {
		e.logger.Warn("Failed to parse evaluation response", "error", err)
		return &entity.EvaluationResult{
			Success:    false,
			Confidence: 0,
			Issues:     []string{"evaluator returned no verdict"},
		}, nil
	}

	e.logger.Info("Evaluation completed",
		"success", result.Success,
		"confidence", result.Confidence,
		"should_retry", result.ShouldRetry,
		"issues_count", len(result.Issues),
	)

	return result, nil
}

const evaluationPrompt = `You are an evaluator. An agent controlled a web browser through tool calls to reach a goal.
Decide whether the goal was reached, using the goal, the agent's final answer, the result of every tool call and the last page the agent saw.

Response format (MUST be valid JSON):
{
  "success": true/false,
  "confidence": 0.0-1.0,
  "issues": ["issue1", "issue2"],
  "feedback": "specific feedback for a retry",
  "should_retry": true/false
}

SUCCESS if:
- The final answer addresses the goal
- The last page is consistent with the answer
- Failed tool calls were recovered from

SHOULD_RETRY if:
- The run stopped on a failed tool call
- The last page contradicts the answer
- The answer says the goal could not be reached but a different approach looks possible

Confidence should reflect certainty (1.0 = definitely reached, 0.0 = definitely not).`

// buildRunReport renders the run as the evaluator's user message.
func buildRunReport(c entity.EvaluationCriteria) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n\nFinal answer:\n%s\n", c.Goal, c.Answer)

	b.WriteString("\nTool calls:\n")
	if len(c.Steps) == 0 {
		b.WriteString("(none)\n")
	}
	for i, s := range c.Steps {
		fmt.Fprintf(&b, "%d. %s -> %s", i+1, s.Tool, s.Result.Code)
		if s.Result.Message != "" {
			fmt.Fprintf(&b, " (%s)", s.Result.Message)
		}
		b.WriteByte('\n')
	}

	if c.Final != nil {
		fmt.Fprintf(&b, "\nLast page:\nURL: %s\nTitle: %s\n", c.Final.URL, c.Final.Title)
		text := c.Final.Text
		if len(text) > maxPageText {
			text = text[:maxPageText] + "\n... (truncated)"
		}
		if text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func parseEvaluationResponse(response string) (*entity.EvaluationResult, error) {
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end < start {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var result entity.EvaluationResult
	if err := json.Unmarshal([]byte(response[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &result, nil
}
