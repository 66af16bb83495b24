package entity

import "fmt"

// ResultCode classifies the outcome of a single actor step.
type ResultCode int

const (
	ResultOk ResultCode = iota
	ResultError
	ResultTabWentAway
	ResultFrameWentAway
	ResultWindowWentAway
	ResultInvalidDOMNodeID
	ResultArgumentsInvalid
	ResultNavigateInvalidURL
	ResultNavigateFailed
	ResultHistoryNoEntry
	ResultObservedTargetElementChanged
	ResultObservedPageChanged
	ResultSelectNoSuchOption
	ResultToolTimeout
	ResultActorBusy
	ResultTaskPaused
	ResultTaskWentAway
	ResultMalformedAction
)

var resultCodeNames = map[ResultCode]string{
	ResultOk:                           "Ok",
	ResultError:                        "Error",
	ResultTabWentAway:                  "TabWentAway",
	ResultFrameWentAway:                "FrameWentAway",
	ResultWindowWentAway:               "WindowWentAway",
	ResultInvalidDOMNodeID:             "InvalidDomNodeId",
	ResultArgumentsInvalid:             "ArgumentsInvalid",
	ResultNavigateInvalidURL:           "NavigateInvalidUrl",
	ResultNavigateFailed:               "NavigateFailed",
	ResultHistoryNoEntry:               "HistoryNoEntry",
	ResultObservedTargetElementChanged: "ObservedTargetElementChanged",
	ResultObservedPageChanged:          "ObservedPageChanged",
	ResultSelectNoSuchOption:           "SelectNoSuchOption",
	ResultToolTimeout:                  "ToolTimeout",
	ResultActorBusy:                    "ActorBusy",
	ResultTaskPaused:                   "TaskPaused",
	ResultTaskWentAway:                 "TaskWentAway",
	ResultMalformedAction:              "MalformedAction",
}

func (c ResultCode) String() string {
	if name, ok := resultCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ResultCode(%d)", int(c))
}

func (c ResultCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ResultCode) UnmarshalText(text []byte) error {
	for code, name := range resultCodeNames {
		if name == string(text) {
			*c = code
			return nil
		}
	}
	return fmt.Errorf("unknown result code %q", text)
}

// ActionResult is the value every fallible actor step produces. The zero
// value is an Ok result.
type ActionResult struct {
	Code    ResultCode `json:"code"`
	Message string     `json:"message,omitempty"`
}

func OkResult() ActionResult {
	return ActionResult{Code: ResultOk}
}

func NewActionResult(code ResultCode, message string) ActionResult {
	return ActionResult{Code: code, Message: message}
}

func (r ActionResult) IsOk() bool {
	return r.Code == ResultOk
}

// String renders the result for journal entries and logs.
func (r ActionResult) String() string {
	if r.Message == "" {
		return fmt.Sprintf("ActionResult[%s]", r.Code)
	}
	return fmt.Sprintf("ActionResult[%s] %s", r.Code, r.Message)
}

// Err converts a non-ok result into an error.
func (r ActionResult) Err() error {
	if r.IsOk() {
		return nil
	}
	return &ActionError{Result: r}
}

type ActionError struct {
	Result ActionResult
}

func (e *ActionError) Error() string {
	if e.Result.Message == "" {
		return "action failed: " + e.Result.Code.String()
	}
	return fmt.Sprintf("action failed: %s: %s", e.Result.Code, e.Result.Message)
}
