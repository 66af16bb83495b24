package journal

import (
	"bytes"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const DefaultMaxBytes = 64 * 1024 * 1024

// Serializer keeps the newest journal entries as JSON lines, bounded by a
// byte budget. The oldest lines are dropped first.
type Serializer struct {
	journal  *Journal
	maxBytes int

	mu     sync.Mutex
	lines  [][]byte
	size   int
	remove func()
}

func NewSerializer(j *Journal, maxBytes int) *Serializer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Serializer{journal: j, maxBytes: maxBytes}
}

// Init starts capturing entries. Entries written before Init are not seen.
func (s *Serializer) Init() {
	remove := s.journal.AddObserver(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remove != nil {
		remove()
		return
	}
	s.remove = remove
}

// Shutdown stops capturing. Buffered lines are kept until Clear.
func (s *Serializer) Shutdown() {
	s.mu.Lock()
	remove := s.remove
	s.remove = nil
	s.mu.Unlock()
	if remove != nil {
		remove()
	}
}

func (s *Serializer) OnEntry(e Entry) {
	line, err := json.Marshal(e)
	if err != nil {
		return
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(line) > s.maxBytes {
		return
	}
	s.lines = append(s.lines, line)
	s.size += len(line)
	for s.size > s.maxBytes {
		s.size -= len(s.lines[0])
		s.lines[0] = nil
		s.lines = s.lines[1:]
	}
}

// Snapshot returns the newest lines that fit in maxBytes, oldest first.
// A non-positive maxBytes returns everything buffered.
func (s *Serializer) Snapshot(maxBytes int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if maxBytes <= 0 || maxBytes > s.size {
		maxBytes = s.size
	}
	start := len(s.lines)
	total := 0
	for start > 0 && total+len(s.lines[start-1]) <= maxBytes {
		start--
		total += len(s.lines[start])
	}

	out := make([]byte, 0, total)
	for _, line := range s.lines[start:] {
		out = append(out, line...)
	}
	return out
}

func (s *Serializer) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.size = 0
}

// DecodeSnapshot parses the output of Snapshot.
func DecodeSnapshot(data []byte) ([]Entry, error) {
	var entries []Entry
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
