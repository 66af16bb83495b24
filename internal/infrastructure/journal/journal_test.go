package journal

import (
	"strings"
	"testing"

	"browser-actor/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	entries []Entry
}

func (r *recorder) OnEntry(e Entry) {
	r.entries = append(r.entries, e)
}

func TestJournal_EntriesInCallOrder(t *testing.T) {
	j := New(nil)
	rec := &recorder{}
	j.AddObserver(rec)

	pending := j.CreatePendingAsyncEntry("https://example.com", entity.TaskID(7), "ClickTool", "begin")
	j.Log("https://example.com", entity.TaskID(7), "Note", "middle")
	pending.Log("Resolved", "node 3")
	pending.EndEntry("done")

	require.Len(t, rec.entries, 4)
	assert.Equal(t, KindBegin, rec.entries[0].Kind)
	assert.Equal(t, KindInstant, rec.entries[1].Kind)
	assert.Equal(t, KindInstant, rec.entries[2].Kind)
	assert.Equal(t, KindEnd, rec.entries[3].Kind)

	assert.Equal(t, rec.entries[0].AsyncID, rec.entries[2].AsyncID)
	assert.Equal(t, rec.entries[0].AsyncID, rec.entries[3].AsyncID)
	assert.Empty(t, rec.entries[1].AsyncID)
	assert.Equal(t, "ClickTool", rec.entries[3].Event)
	assert.Equal(t, entity.TaskID(7), rec.entries[3].TaskID)
}

func TestJournal_EndEntryOnlyOnce(t *testing.T) {
	j := New(nil)
	rec := &recorder{}
	j.AddObserver(rec)

	pending := j.CreatePendingAsyncEntry("", 1, "Wait", "")
	pending.EndEntry("first")
	pending.EndEntry("second")

	require.Len(t, rec.entries, 2)
	assert.Equal(t, "first", rec.entries[1].Details)
}

func TestJournal_RemovedObserverStopsReceiving(t *testing.T) {
	j := New(nil)
	rec := &recorder{}
	remove := j.AddObserver(rec)

	j.Log("", 1, "a", "")
	remove()
	j.Log("", 1, "b", "")

	require.Len(t, rec.entries, 1)
	assert.Equal(t, "a", rec.entries[0].Event)
}

func TestSerializer_SnapshotRoundTrip(t *testing.T) {
	j := New(nil)
	s := NewSerializer(j, 0)
	j.Log("", 1, "before-init", "")
	s.Init()
	defer s.Shutdown()

	j.Log("", 1, "one", "x")
	j.Log("", 2, "two", "y")

	entries, err := DecodeSnapshot(s.Snapshot(0))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "one", entries[0].Event)
	assert.Equal(t, entity.TaskID(2), entries[1].TaskID)
}

func TestSerializer_DropsOldestOverBudget(t *testing.T) {
	j := New(nil)
	probe := NewSerializer(j, 0)
	probe.Init()
	j.Log("", 1, "e0", strings.Repeat("a", 100))
	lineSize := len(probe.Snapshot(0))
	probe.Shutdown()

	s := NewSerializer(j, lineSize*2+lineSize/2)
	s.Init()
	defer s.Shutdown()
	for _, name := range []string{"e1", "e2", "e3"} {
		j.Log("", 1, name, strings.Repeat("a", 100))
	}

	entries, err := DecodeSnapshot(s.Snapshot(0))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e2", entries[0].Event)
	assert.Equal(t, "e3", entries[1].Event)

	entries, err = DecodeSnapshot(s.Snapshot(lineSize + lineSize/2))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "e3", entries[0].Event)
}

func TestHandler_AsyncEvents(t *testing.T) {
	j := New(nil)
	h := NewHandler(j)
	h.Start(0)
	defer h.Stop()

	h.LogBeginAsyncEvent(42, 3, "ClientAction", "first")
	h.LogBeginAsyncEvent(42, 3, "ClientAction", "second")
	assert.True(t, h.LogEndAsyncEvent(42, "finished"))
	assert.False(t, h.LogEndAsyncEvent(42, "again"))
	h.LogInstantEvent(3, "Ping", "")

	entries, err := DecodeSnapshot(h.Snapshot(0, true))
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, KindBegin, entries[0].Kind)
	assert.Equal(t, KindBegin, entries[1].Kind)
	assert.Equal(t, KindEnd, entries[2].Kind)
	assert.Equal(t, entries[1].AsyncID, entries[2].AsyncID)
	assert.Equal(t, KindInstant, entries[3].Kind)

	assert.Empty(t, h.Snapshot(0, false))
}

func TestHandler_SnapshotWithoutCapture(t *testing.T) {
	h := NewHandler(New(nil))
	assert.Nil(t, h.Snapshot(0, false))
}
