package journal

import "sync"

// Recorder keeps every entry it observes in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) OnEntry(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Events returns the event names of all entries of the given kind.
func (r *Recorder) Events(kind EntryKind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var events []string
	for _, e := range r.entries {
		if e.Kind == kind {
			events = append(events, e.Event)
		}
	}
	return events
}
