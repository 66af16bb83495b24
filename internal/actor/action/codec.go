package action

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseAction decodes one JSON action. It does not check that exactly one
// variant is set; CreateToolRequest does.
func ParseAction(data []byte) (*Action, error) {
	var a Action
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	return &a, nil
}

func MarshalAction(a *Action) ([]byte, error) {
	return json.Marshal(a)
}

// Script is a named list of actions run in order against one task.
type Script struct {
	Title string `yaml:"title"`
	// StopOnError ends the run at the first non-ok result.
	StopOnError bool     `yaml:"stop_on_error"`
	Actions     []Action `yaml:"actions"`
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if len(s.Actions) == 0 {
		return nil, fmt.Errorf("script %q has no actions", s.Title)
	}
	return &s, nil
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(data)
}

// FromToolCall builds an action from a model function call whose name is
// an action kind and whose arguments are that variant's JSON.
func FromToolCall(name, arguments string) (*Action, error) {
	if arguments == "" {
		arguments = "{}"
	}
	args := []byte(arguments)
	a := &Action{}

	var err error
	switch name {
	case "click":
		a.Click = &ClickAction{}
		err = json.Unmarshal(args, a.Click)
	case "type":
		a.Type = &TypeAction{}
		err = json.Unmarshal(args, a.Type)
	case "scroll":
		a.Scroll = &ScrollAction{}
		err = json.Unmarshal(args, a.Scroll)
	case "move_mouse":
		a.MoveMouse = &MoveMouseAction{}
		err = json.Unmarshal(args, a.MoveMouse)
	case "drag_and_release":
		a.DragAndRelease = &DragAndReleaseAction{}
		err = json.Unmarshal(args, a.DragAndRelease)
	case "select":
		a.Select = &SelectAction{}
		err = json.Unmarshal(args, a.Select)
	case "navigate":
		a.Navigate = &NavigateAction{}
		err = json.Unmarshal(args, a.Navigate)
	case "back":
		a.Back = &HistoryAction{}
		err = json.Unmarshal(args, a.Back)
	case "forward":
		a.Forward = &HistoryAction{}
		err = json.Unmarshal(args, a.Forward)
	case "wait":
		a.Wait = &WaitAction{}
		err = json.Unmarshal(args, a.Wait)
	case "create_tab":
		a.CreateTab = &CreateTabAction{}
		err = json.Unmarshal(args, a.CreateTab)
	case "close_tab":
		a.CloseTab = &TabAction{}
		err = json.Unmarshal(args, a.CloseTab)
	case "activate_tab":
		a.ActivateTab = &TabAction{}
		err = json.Unmarshal(args, a.ActivateTab)
	default:
		return nil, fmt.Errorf("unknown action %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s arguments: %w", name, err)
	}
	return a, nil
}
