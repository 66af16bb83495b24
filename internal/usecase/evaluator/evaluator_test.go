package evaluator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"
	"browser-actor/internal/infrastructure/logger"
)

type stubLLM struct {
	reply string
	err   error
	last  output.ChatRequest
}

func (s *stubLLM) Chat(_ context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &output.ChatResponse{Message: entity.Message{Role: entity.RoleAssistant, Content: s.reply}}, nil
}

func TestParseEvaluationResponse_ValidJSON(t *testing.T) {
	jsonResponse := `{
  "success": true,
  "confidence": 0.9,
  "issues": ["minor issue"],
  "feedback": "good job",
  "should_retry": false
}`

	result, err := parseEvaluationResponse(jsonResponse)
	if err != nil {
		t.Fatalf("parseEvaluationResponse failed: %v", err)
	}

	if !result.Success {
		t.Error("Expected success=true")
	}
	if result.Confidence != 0.9 {
		t.Errorf("Expected confidence=0.9, got %f", result.Confidence)
	}
	if len(result.Issues) != 1 || result.Issues[0] != "minor issue" {
		t.Errorf("Expected issues=[\"minor issue\"], got %v", result.Issues)
	}
	if result.Feedback != "good job" {
		t.Errorf("Expected feedback=\"good job\", got %s", result.Feedback)
	}
	if result.ShouldRetry {
		t.Error("Expected should_retry=false")
	}
}

func TestParseEvaluationResponse_WithTextAround(t *testing.T) {
	response := `Here's my evaluation:

{
  "success": false,
  "confidence": 0.3,
  "issues": ["stopped on ObservedPageChanged", "no answer"],
  "feedback": "Observe the page again before clicking",
  "should_retry": true
}

Hope this helps!`

	result, err := parseEvaluationResponse(response)
	if err != nil {
		t.Fatalf("parseEvaluationResponse failed: %v", err)
	}

	if result.Success {
		t.Error("Expected success=false")
	}
	if len(result.Issues) != 2 {
		t.Errorf("Expected 2 issues, got %d", len(result.Issues))
	}
	if !result.ShouldRetry {
		t.Error("Expected should_retry=true")
	}
}

func TestParseEvaluationResponse_InvalidJSON(t *testing.T) {
	for _, response := range []string{"This is not JSON at all", "} backwards {", "{not json}"} {
		if _, err := parseEvaluationResponse(response); err == nil {
			t.Errorf("Expected error for %q", response)
		}
	}
}

func TestBuildRunReport(t *testing.T) {
	report := buildRunReport(entity.EvaluationCriteria{
		Goal:   "Find the price",
		Answer: "It costs $5",
		Steps: []entity.Step{
			{Tool: "navigate", Result: entity.OkResult()},
			{Tool: "click", Result: entity.NewActionResult(entity.ResultInvalidDOMNodeID, "node 7")},
		},
		Final: &entity.PageContent{URL: "https://shop.test/item", Title: "Item", Text: "Price: $5"},
	})

	for _, want := range []string{
		"Goal: Find the price",
		"It costs $5",
		"1. navigate -> Ok",
		"2. click -> InvalidDomNodeId (node 7)",
		"URL: https://shop.test/item",
		"Price: $5",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestBuildRunReport_NoSteps(t *testing.T) {
	report := buildRunReport(entity.EvaluationCriteria{Goal: "g", Answer: "a"})

	if !strings.Contains(report, "(none)") {
		t.Errorf("expected empty step marker, got:\n%s", report)
	}
	if strings.Contains(report, "Last page") {
		t.Errorf("no page section expected without a final observation")
	}
}

func TestEvaluate(t *testing.T) {
	llm := &stubLLM{reply: `{"success": true, "confidence": 0.8, "issues": [], "feedback": "", "should_retry": false}`}
	e := New(llm, logger.NewNop())

	result, err := e.Evaluate(context.Background(), entity.EvaluationCriteria{Goal: "open example.com", Answer: "done"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !result.Success || result.Confidence != 0.8 {
		t.Errorf("unexpected result %+v", result)
	}
	if len(llm.last.Messages) != 2 || llm.last.Messages[0].Role != entity.RoleSystem {
		t.Errorf("expected system and user messages, got %+v", llm.last.Messages)
	}
	if len(llm.last.Tools) != 0 {
		t.Errorf("evaluation must not offer tools")
	}
}

func TestEvaluate_UnparseableReplyFails(t *testing.T) {
	e := New(&stubLLM{reply: "looks fine to me"}, logger.NewNop())

	result, err := e.Evaluate(context.Background(), entity.EvaluationCriteria{Goal: "g"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.Success {
		t.Error("an unparseable verdict must not count as success")
	}
}

func TestEvaluate_LLMError(t *testing.T) {
	e := New(&stubLLM{err: errors.New("boom")}, logger.NewNop())

	if _, err := e.Evaluate(context.Background(), entity.EvaluationCriteria{Goal: "g"}); err == nil {
		t.Error("expected error from failing llm")
	}
}
