package journal

import (
	"sync"

	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"
)

// Handler exposes the journal to an external client: async events keyed by
// client-chosen ids, instant events and a capture buffer that can be
// started, stopped and snapshotted.
type Handler struct {
	journal *Journal

	mu         sync.Mutex
	active     map[uint64]output.PendingEntry
	serializer *Serializer
}

func NewHandler(j *Journal) *Handler {
	return &Handler{
		journal: j,
		active:  make(map[uint64]output.PendingEntry),
	}
}

// LogBeginAsyncEvent opens an event under id. An event already open under
// the same id is dropped without an end entry.
func (h *Handler) LogBeginAsyncEvent(id uint64, taskID entity.TaskID, event, details string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.active, id)
	h.active[id] = h.journal.CreatePendingAsyncEntry("", taskID, event, details)
}

// LogEndAsyncEvent closes the event under id. Unknown ids are ignored.
func (h *Handler) LogEndAsyncEvent(id uint64, details string) bool {
	h.mu.Lock()
	entry, ok := h.active[id]
	delete(h.active, id)
	h.mu.Unlock()

	if ok {
		entry.EndEntry(details)
	}
	return ok
}

func (h *Handler) LogInstantEvent(taskID entity.TaskID, event, details string) {
	h.journal.Log("", taskID, event, details)
}

func (h *Handler) Start(maxBytes int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.serializer != nil {
		h.serializer.Shutdown()
	}
	h.serializer = NewSerializer(h.journal, maxBytes)
	h.serializer.Init()
}

func (h *Handler) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.serializer != nil {
		h.serializer.Shutdown()
		h.serializer = nil
	}
}

func (h *Handler) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.serializer != nil {
		h.serializer.Clear()
	}
}

// Snapshot returns the captured lines, or nil when capture is not running.
func (h *Handler) Snapshot(maxBytes int, clear bool) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.serializer == nil {
		return nil
	}
	data := h.serializer.Snapshot(maxBytes)
	if clear {
		h.serializer.Clear()
	}
	return data
}
