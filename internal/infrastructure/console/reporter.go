package console

import (
	"fmt"
	"io"
	"os"

	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"

	"github.com/fatih/color"
)

var _ output.ActionReporter = (*Reporter)(nil)

// Reporter prints one colored block per action.
type Reporter struct {
	out io.Writer
}

func NewReporter(out io.Writer) *Reporter {
	if out == nil {
		out = os.Stdout
	}
	return &Reporter{out: out}
}

func (r *Reporter) ShowTitle(title string) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(r.out, "\n━━━ %s ━━━\n", title)
}

func (r *Reporter) ShowAnswer(answer string) {
	if answer == "" {
		return
	}
	blue := color.New(color.FgBlue, color.Bold)
	blue.Fprint(r.out, "\nAnswer: ")
	fmt.Fprintln(r.out, answer)
}

func (r *Reporter) ShowEvaluation(result *entity.EvaluationResult) {
	if result.Success {
		color.New(color.FgGreen, color.Bold).Fprintf(r.out, "\nGoal reached (confidence %.2f)\n", result.Confidence)
	} else {
		color.New(color.FgRed, color.Bold).Fprintf(r.out, "\nGoal not reached (confidence %.2f)\n", result.Confidence)
	}
	for _, issue := range result.Issues {
		fmt.Fprintf(r.out, "  - %s\n", issue)
	}
	if result.Feedback != "" {
		fmt.Fprintf(r.out, "  %s\n", result.Feedback)
	}
}

func (r *Reporter) ReportAction(taskID entity.TaskID, kind string, result entity.ActionResult, obs *entity.PageContent) {
	icon, name := actionDisplay(kind)

	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintf(r.out, "\n%s %s", icon, name)
	dim := color.New(color.Faint)
	dim.Fprintf(r.out, " (task %d)\n", taskID)

	if result.IsOk() {
		green := color.New(color.FgGreen)
		green.Fprintf(r.out, "✓ %s\n", result.Code)
	} else {
		red := color.New(color.FgRed)
		red.Fprintf(r.out, "❌ %s", result.Code)
		if result.Message != "" {
			dim.Fprintf(r.out, ": %s", truncate(result.Message, 300))
		}
		fmt.Fprintln(r.out)
	}

	if obs != nil {
		dim.Fprintf(r.out, "   %s | %s | %d nodes\n", truncate(obs.Title, 60), obs.URL, len(obs.Nodes))
	}
}

func actionDisplay(kind string) (string, string) {
	displays := map[string][2]string{
		"navigate":         {"🌐", "Navigate"},
		"back":             {"⬅️", "Back"},
		"forward":          {"➡️", "Forward"},
		"click":            {"🖱️", "Click"},
		"type":             {"✏️", "Type"},
		"scroll":           {"📜", "Scroll"},
		"move_mouse":       {"🖱️", "Move mouse"},
		"drag_and_release": {"✋", "Drag"},
		"select":           {"☑️", "Select"},
		"wait":             {"⏳", "Wait"},
		"create_tab":       {"➕", "New tab"},
		"close_tab":        {"✖️", "Close tab"},
		"activate_tab":     {"🗂️", "Activate tab"},
		"yield_to_user":    {"⏸️", "Yield to user"},
	}

	if display, ok := displays[kind]; ok {
		return display[0], display[1]
	}
	if kind == "" {
		return "🔧", "unknown action"
	}
	return "🔧", kind
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
