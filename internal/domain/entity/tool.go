package entity

type ToolName string

const (
	ToolClick          ToolName = "click"
	ToolType           ToolName = "type"
	ToolScroll         ToolName = "scroll"
	ToolMoveMouse      ToolName = "move_mouse"
	ToolDragAndRelease ToolName = "drag_and_release"
	ToolSelect         ToolName = "select"
	ToolNavigate       ToolName = "navigate"
	ToolHistory        ToolName = "history"
	ToolTabManagement  ToolName = "tab_management"
	ToolWait           ToolName = "wait"
)

func (t ToolName) String() string {
	return string(t)
}
