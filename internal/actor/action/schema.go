package action

import "browser-actor/internal/domain/entity"

func targetSchema(description string) map[string]any {
	return map[string]any{
		"type":        "object",
		"description": description + " Give either coordinate, or document_identifier together with content_node_id from the latest observation.",
		"properties": map[string]any{
			"coordinate": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"x": map[string]any{"type": "number"},
					"y": map[string]any{"type": "number"},
				},
				"required": []string{"x", "y"},
			},
			"document_identifier": map[string]any{"type": "string"},
			"content_node_id":     map[string]any{"type": "integer", "description": "0 addresses the whole viewport"},
		},
	}
}

var tabIDSchema = map[string]any{
	"type":        "string",
	"description": "Tab handle such as \"3.1\". Defaults to the task's current tab.",
}

func object(required []string, props map[string]any) map[string]any {
	props["tab_id"] = tabIDSchema
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ToolDefinitions describes every action that has a tool behind it, named
// so that FromToolCall can decode the call.
func ToolDefinitions() []entity.ToolDefinition {
	return []entity.ToolDefinition{
		{
			Name:        "click",
			Description: "Click an element or a point in the page.",
			Parameters: object([]string{"target"}, map[string]any{
				"target":      targetSchema("What to click."),
				"click_type":  map[string]any{"type": "string", "enum": []string{"left", "right"}},
				"click_count": map[string]any{"type": "string", "enum": []string{"single", "double"}},
			}),
		},
		{
			Name:        "type",
			Description: "Type text into an input element.",
			Parameters: object([]string{"target", "text"}, map[string]any{
				"target":          targetSchema("The input to type into."),
				"text":            map[string]any{"type": "string"},
				"mode":            map[string]any{"type": "string", "enum": []string{"delete_existing", "prepend", "append"}},
				"follow_by_enter": map[string]any{"type": "boolean"},
			}),
		},
		{
			Name:        "scroll",
			Description: "Scroll an element, or the whole page when no target is given.",
			Parameters: object([]string{"distance"}, map[string]any{
				"target":    targetSchema("The scroll container."),
				"direction": map[string]any{"type": "string", "enum": []string{"left", "right", "up", "down"}},
				"distance":  map[string]any{"type": "number", "description": "Pixels, greater than zero."},
			}),
		},
		{
			Name:        "move_mouse",
			Description: "Move the mouse over an element or point, for example to open a hover menu.",
			Parameters: object([]string{"target"}, map[string]any{
				"target": targetSchema("Where to move."),
			}),
		},
		{
			Name:        "drag_and_release",
			Description: "Press the mouse at one target, drag to another and release.",
			Parameters: object([]string{"from", "to"}, map[string]any{
				"from": targetSchema("Drag start."),
				"to":   targetSchema("Drop point."),
			}),
		},
		{
			Name:        "select",
			Description: "Choose an option of a select element by value.",
			Parameters: object([]string{"target", "value"}, map[string]any{
				"target": targetSchema("The select element."),
				"value":  map[string]any{"type": "string"},
			}),
		},
		{
			Name:        "navigate",
			Description: "Load a URL in the tab.",
			Parameters: object([]string{"url"}, map[string]any{
				"url": map[string]any{"type": "string"},
			}),
		},
		{
			Name:        "back",
			Description: "Go back one entry in the tab's history.",
			Parameters:  object(nil, map[string]any{}),
		},
		{
			Name:        "forward",
			Description: "Go forward one entry in the tab's history.",
			Parameters:  object(nil, map[string]any{}),
		},
		{
			Name:        "wait",
			Description: "Wait for the page to change without acting.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"duration_ms": map[string]any{"type": "integer"},
				},
			},
		},
		{
			Name:        "create_tab",
			Description: "Open a new blank tab in a window.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"window_id":  map[string]any{"type": "integer"},
					"foreground": map[string]any{"type": "boolean"},
				},
				"required": []string{"window_id"},
			},
		},
		{
			Name:        "close_tab",
			Description: "Close a tab.",
			Parameters:  object(nil, map[string]any{}),
		},
		{
			Name:        "activate_tab",
			Description: "Bring a tab to the front.",
			Parameters:  object(nil, map[string]any{}),
		},
	}
}
