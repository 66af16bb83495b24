package output

import "browser-actor/internal/domain/entity"

// JournalPort is the append-only event log tools and the controller write to.
type JournalPort interface {
	Log(url string, taskID entity.TaskID, event, details string)
	CreatePendingAsyncEntry(url string, taskID entity.TaskID, event, details string) PendingEntry
}

// PendingEntry is an open async journal event. EndEntry closes it; calls
// after the first are ignored.
type PendingEntry interface {
	Log(event, details string)
	EndEntry(details string)
}
