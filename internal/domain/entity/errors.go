package entity

import "errors"

// Errors reported by browser adapters. Tools translate them into result codes.
var (
	ErrTabClosed       = errors.New("tab closed")
	ErrWindowNotFound  = errors.New("window not found")
	ErrNodeNotFound    = errors.New("dom node not found")
	ErrDocumentChanged = errors.New("document changed")
	ErrNoHistoryEntry  = errors.New("no history entry")
	ErrNoSuchOption    = errors.New("no such option")
	ErrInvalidURL      = errors.New("invalid url")
)

// Errors reported by the task service.
var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskStopped  = errors.New("task stopped")
)
