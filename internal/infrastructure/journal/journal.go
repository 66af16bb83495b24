// Package journal records actor activity as an ordered stream of begin, end
// and instant entries. Entry order is call order.
package journal

import (
	"sync"
	"time"

	"browser-actor/internal/application/port/output"
	"browser-actor/internal/domain/entity"

	"github.com/google/uuid"
)

var _ output.JournalPort = (*Journal)(nil)

type EntryKind string

const (
	KindBegin   EntryKind = "begin"
	KindEnd     EntryKind = "end"
	KindInstant EntryKind = "instant"
)

type Entry struct {
	ID      string        `json:"id"`
	AsyncID string        `json:"async_id,omitempty"`
	Kind    EntryKind     `json:"kind"`
	URL     string        `json:"url,omitempty"`
	TaskID  entity.TaskID `json:"task_id"`
	Event   string        `json:"event"`
	Details string        `json:"details,omitempty"`
	Time    time.Time     `json:"time"`
}

// Observer receives every entry after it is appended.
type Observer interface {
	OnEntry(e Entry)
}

type Journal struct {
	logger output.LoggerPort
	now    func() time.Time

	mu        sync.Mutex
	observers map[*observerRef]struct{}
}

type observerRef struct {
	observer Observer
}

func New(logger output.LoggerPort) *Journal {
	return &Journal{
		logger:    logger,
		now:       time.Now,
		observers: make(map[*observerRef]struct{}),
	}
}

// AddObserver subscribes o and returns a function that removes it.
func (j *Journal) AddObserver(o Observer) func() {
	ref := &observerRef{observer: o}
	j.mu.Lock()
	j.observers[ref] = struct{}{}
	j.mu.Unlock()

	return func() {
		j.mu.Lock()
		delete(j.observers, ref)
		j.mu.Unlock()
	}
}

func (j *Journal) Log(url string, taskID entity.TaskID, event, details string) {
	j.append(Entry{
		Kind:    KindInstant,
		URL:     url,
		TaskID:  taskID,
		Event:   event,
		Details: details,
	})
}

func (j *Journal) CreatePendingAsyncEntry(url string, taskID entity.TaskID, event, details string) output.PendingEntry {
	p := &pendingEntry{
		journal: j,
		asyncID: uuid.NewString(),
		url:     url,
		taskID:  taskID,
		event:   event,
	}
	j.append(Entry{
		AsyncID: p.asyncID,
		Kind:    KindBegin,
		URL:     url,
		TaskID:  taskID,
		Event:   event,
		Details: details,
	})
	return p
}

// append holds the lock while notifying so observers see entries in the
// same order they were written.
func (j *Journal) append(e Entry) {
	e.ID = uuid.NewString()
	e.Time = j.now()

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.logger != nil {
		j.logger.Debug("journal",
			"kind", e.Kind,
			"task", e.TaskID,
			"event", e.Event,
			"details", e.Details,
			"url", e.URL,
		)
	}
	for ref := range j.observers {
		ref.observer.OnEntry(e)
	}
}

type pendingEntry struct {
	journal *Journal
	asyncID string
	url     string
	taskID  entity.TaskID
	event   string

	once sync.Once
}

func (p *pendingEntry) Log(event, details string) {
	p.journal.append(Entry{
		AsyncID: p.asyncID,
		Kind:    KindInstant,
		URL:     p.url,
		TaskID:  p.taskID,
		Event:   event,
		Details: details,
	})
}

func (p *pendingEntry) EndEntry(details string) {
	p.once.Do(func() {
		p.journal.append(Entry{
			AsyncID: p.asyncID,
			Kind:    KindEnd,
			URL:     p.url,
			TaskID:  p.taskID,
			Event:   p.event,
			Details: details,
		})
	})
}
