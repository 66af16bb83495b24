package tools

import (
	"fmt"
	"time"

	"browser-actor/internal/domain/entity"
)

// ToolRequest is an immutable description of one browser action. The set
// of implementations is closed; Factory.CreateTool switches over all of
// them.
type ToolRequest interface {
	Name() entity.ToolName
	JournalEvent() string
	fmt.Stringer

	toolRequest()
}

// TabToolRequest is embedded by every request that acts on a tab. The
// handle is only resolved when the tool is created.
type TabToolRequest struct {
	tab entity.TabHandle
}

func newTabToolRequest(tab entity.TabHandle) TabToolRequest {
	if tab.IsNull() {
		panic("tools: tab tool request requires a non-null tab handle")
	}
	return TabToolRequest{tab: tab}
}

func (r TabToolRequest) Tab() entity.TabHandle {
	return r.tab
}

// PageToolRequest is a tab request aimed at a point or node in the page.
type PageToolRequest struct {
	TabToolRequest
	target entity.Target
}

func newPageToolRequest(tab entity.TabHandle, target entity.Target) PageToolRequest {
	return PageToolRequest{TabToolRequest: newTabToolRequest(tab), target: target}
}

func (r PageToolRequest) Target() entity.Target {
	return r.target
}

type ClickToolRequest struct {
	PageToolRequest
	ClickType  entity.ClickType
	ClickCount entity.ClickCount
}

func NewClickToolRequest(tab entity.TabHandle, target entity.Target, clickType entity.ClickType, count entity.ClickCount) *ClickToolRequest {
	return &ClickToolRequest{
		PageToolRequest: newPageToolRequest(tab, target),
		ClickType:       clickType,
		ClickCount:      count,
	}
}

func (*ClickToolRequest) Name() entity.ToolName { return entity.ToolClick }
func (*ClickToolRequest) JournalEvent() string  { return "Click" }
func (*ClickToolRequest) toolRequest()          {}
func (r *ClickToolRequest) String() string {
	return fmt.Sprintf("Click[%s %s %s %s]", r.tab, r.target, r.ClickType, r.ClickCount)
}

type TypeToolRequest struct {
	PageToolRequest
	Text          string
	Mode          entity.TypeMode
	FollowByEnter bool
}

func NewTypeToolRequest(tab entity.TabHandle, target entity.Target, text string, mode entity.TypeMode, followByEnter bool) *TypeToolRequest {
	return &TypeToolRequest{
		PageToolRequest: newPageToolRequest(tab, target),
		Text:            text,
		Mode:            mode,
		FollowByEnter:   followByEnter,
	}
}

func (*TypeToolRequest) Name() entity.ToolName { return entity.ToolType }
func (*TypeToolRequest) JournalEvent() string  { return "Type" }
func (*TypeToolRequest) toolRequest()          {}
func (r *TypeToolRequest) String() string {
	return fmt.Sprintf("Type[%s %s mode=%s len=%d enter=%t]", r.tab, r.target, r.Mode, len(r.Text), r.FollowByEnter)
}

type ScrollToolRequest struct {
	PageToolRequest
	Direction entity.ScrollDirection
	Distance  float64
}

func NewScrollToolRequest(tab entity.TabHandle, target entity.Target, direction entity.ScrollDirection, distance float64) *ScrollToolRequest {
	return &ScrollToolRequest{
		PageToolRequest: newPageToolRequest(tab, target),
		Direction:       direction,
		Distance:        distance,
	}
}

func (*ScrollToolRequest) Name() entity.ToolName { return entity.ToolScroll }
func (*ScrollToolRequest) JournalEvent() string  { return "Scroll" }
func (*ScrollToolRequest) toolRequest()          {}
func (r *ScrollToolRequest) String() string {
	return fmt.Sprintf("Scroll[%s %s %s %g]", r.tab, r.target, r.Direction, r.Distance)
}

type MoveMouseToolRequest struct {
	PageToolRequest
}

func NewMoveMouseToolRequest(tab entity.TabHandle, target entity.Target) *MoveMouseToolRequest {
	return &MoveMouseToolRequest{PageToolRequest: newPageToolRequest(tab, target)}
}

func (*MoveMouseToolRequest) Name() entity.ToolName { return entity.ToolMoveMouse }
func (*MoveMouseToolRequest) JournalEvent() string  { return "MoveMouse" }
func (*MoveMouseToolRequest) toolRequest()          {}
func (r *MoveMouseToolRequest) String() string {
	return fmt.Sprintf("MoveMouse[%s %s]", r.tab, r.target)
}

type DragAndReleaseToolRequest struct {
	TabToolRequest
	From entity.Target
	To   entity.Target
}

func NewDragAndReleaseToolRequest(tab entity.TabHandle, from, to entity.Target) *DragAndReleaseToolRequest {
	return &DragAndReleaseToolRequest{TabToolRequest: newTabToolRequest(tab), From: from, To: to}
}

func (*DragAndReleaseToolRequest) Name() entity.ToolName { return entity.ToolDragAndRelease }
func (*DragAndReleaseToolRequest) JournalEvent() string  { return "DragAndRelease" }
func (*DragAndReleaseToolRequest) toolRequest()          {}
func (r *DragAndReleaseToolRequest) String() string {
	return fmt.Sprintf("DragAndRelease[%s %s -> %s]", r.tab, r.From, r.To)
}

type SelectToolRequest struct {
	PageToolRequest
	Value string
}

func NewSelectToolRequest(tab entity.TabHandle, target entity.Target, value string) *SelectToolRequest {
	return &SelectToolRequest{PageToolRequest: newPageToolRequest(tab, target), Value: value}
}

func (*SelectToolRequest) Name() entity.ToolName { return entity.ToolSelect }
func (*SelectToolRequest) JournalEvent() string  { return "Select" }
func (*SelectToolRequest) toolRequest()          {}
func (r *SelectToolRequest) String() string {
	return fmt.Sprintf("Select[%s %s value=%q]", r.tab, r.target, r.Value)
}

type NavigateToolRequest struct {
	TabToolRequest
	URL string
}

func NewNavigateToolRequest(tab entity.TabHandle, url string) *NavigateToolRequest {
	return &NavigateToolRequest{TabToolRequest: newTabToolRequest(tab), URL: url}
}

func (*NavigateToolRequest) Name() entity.ToolName { return entity.ToolNavigate }
func (*NavigateToolRequest) JournalEvent() string  { return "Navigate" }
func (*NavigateToolRequest) toolRequest()          {}
func (r *NavigateToolRequest) String() string {
	return fmt.Sprintf("Navigate[%s %s]", r.tab, r.URL)
}

type HistoryToolRequest struct {
	TabToolRequest
	Direction entity.HistoryDirection
}

func NewHistoryToolRequest(tab entity.TabHandle, direction entity.HistoryDirection) *HistoryToolRequest {
	return &HistoryToolRequest{TabToolRequest: newTabToolRequest(tab), Direction: direction}
}

func (*HistoryToolRequest) Name() entity.ToolName { return entity.ToolHistory }
func (r *HistoryToolRequest) JournalEvent() string {
	if r.Direction == entity.HistoryForward {
		return "HistoryForward"
	}
	return "HistoryBack"
}
func (*HistoryToolRequest) toolRequest() {}
func (r *HistoryToolRequest) String() string {
	return fmt.Sprintf("History[%s %s]", r.tab, r.Direction)
}

type CreateTabToolRequest struct {
	Window     entity.WindowID
	Foreground bool
}

func NewCreateTabToolRequest(window entity.WindowID, foreground bool) *CreateTabToolRequest {
	return &CreateTabToolRequest{Window: window, Foreground: foreground}
}

func (*CreateTabToolRequest) Name() entity.ToolName { return entity.ToolTabManagement }
func (*CreateTabToolRequest) JournalEvent() string  { return "CreateTab" }
func (*CreateTabToolRequest) toolRequest()          {}
func (r *CreateTabToolRequest) String() string {
	return fmt.Sprintf("CreateTab[window=%d foreground=%t]", r.Window, r.Foreground)
}

type ActivateTabToolRequest struct {
	TabToolRequest
}

func NewActivateTabToolRequest(tab entity.TabHandle) *ActivateTabToolRequest {
	return &ActivateTabToolRequest{TabToolRequest: newTabToolRequest(tab)}
}

func (*ActivateTabToolRequest) Name() entity.ToolName { return entity.ToolTabManagement }
func (*ActivateTabToolRequest) JournalEvent() string  { return "ActivateTab" }
func (*ActivateTabToolRequest) toolRequest()          {}
func (r *ActivateTabToolRequest) String() string {
	return fmt.Sprintf("ActivateTab[%s]", r.tab)
}

type CloseTabToolRequest struct {
	TabToolRequest
}

func NewCloseTabToolRequest(tab entity.TabHandle) *CloseTabToolRequest {
	return &CloseTabToolRequest{TabToolRequest: newTabToolRequest(tab)}
}

func (*CloseTabToolRequest) Name() entity.ToolName { return entity.ToolTabManagement }
func (*CloseTabToolRequest) JournalEvent() string  { return "CloseTab" }
func (*CloseTabToolRequest) toolRequest()          {}
func (r *CloseTabToolRequest) String() string {
	return fmt.Sprintf("CloseTab[%s]", r.tab)
}

// WaitToolRequest waits without acting. Without an explicit duration the
// factory's configured delay applies.
type WaitToolRequest struct {
	duration *time.Duration
}

func NewWaitToolRequest() *WaitToolRequest {
	return &WaitToolRequest{}
}

func NewWaitToolRequestFor(d time.Duration) *WaitToolRequest {
	return &WaitToolRequest{duration: &d}
}

func (r *WaitToolRequest) Duration() (time.Duration, bool) {
	if r.duration == nil {
		return 0, false
	}
	return *r.duration, true
}

func (*WaitToolRequest) Name() entity.ToolName { return entity.ToolWait }
func (*WaitToolRequest) JournalEvent() string  { return "Wait" }
func (*WaitToolRequest) toolRequest()          {}
func (r *WaitToolRequest) String() string {
	if r.duration == nil {
		return "Wait[default]"
	}
	return fmt.Sprintf("Wait[%s]", *r.duration)
}

// TabOf returns the tab a request acts on, if it is tab-scoped.
func TabOf(r ToolRequest) (entity.TabHandle, bool) {
	if tr, ok := r.(interface{ Tab() entity.TabHandle }); ok {
		return tr.Tab(), true
	}
	return entity.NullTabHandle, false
}
