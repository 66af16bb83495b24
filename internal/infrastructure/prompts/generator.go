package prompts

import (
	"bytes"
	"sort"
	"text/template"

	"browser-actor/internal/domain/entity"
)

type ActionInfo struct {
	Name        string
	Description string
}

type SystemPromptData struct {
	Actions []ActionInfo
}

// GenerateSystemPrompt renders baseTemplate with the given actions listed
// by name.
func GenerateSystemPrompt(baseTemplate string, defs []entity.ToolDefinition) (string, error) {
	actions := make([]ActionInfo, 0, len(defs))
	for _, def := range defs {
		actions = append(actions, ActionInfo{
			Name:        def.Name,
			Description: def.Description,
		})
	}

	sort.Slice(actions, func(i, j int) bool {
		return actions[i].Name < actions[j].Name
	})

	tmpl, err := template.New("system").Parse(baseTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, SystemPromptData{Actions: actions}); err != nil {
		return "", err
	}

	return buf.String(), nil
}
