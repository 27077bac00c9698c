package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPersister struct {
	mu     sync.Mutex
	events []GameEvent
	done   chan struct{}
}

func (p *recordingPersister) Append(e GameEvent) error {
	p.mu.Lock()
	p.events = append(p.events, e)
	n := len(p.events)
	p.mu.Unlock()
	if n == 2 {
		close(p.done)
	}
	return nil
}

func TestAppendNotifiesListenersInOrder(t *testing.T) {
	el := NewEventLog(nil, 0)
	var seen []EventType
	el.Subscribe(func(e GameEvent) { seen = append(seen, e.Type) })

	el.Append(
		New(EventTypeTapCollected, "ana", "", ResourcePayload{Resource: "Iron Ore", Amount: 1}),
		New(EventTypeXPGained, "ana", "", AmountPayload{Amount: 1}),
	)

	assert.Equal(t, []EventType{EventTypeTapCollected, EventTypeXPGained}, seen)
	assert.Len(t, el.GetByType(EventTypeXPGained), 1)
}

func TestAppendIsBounded(t *testing.T) {
	el := NewEventLog(nil, 3)
	for i := 0; i < 10; i++ {
		el.Append(New(EventTypeIdleCollected, "ana", "", AmountPayload{Amount: int64(i)}))
	}

	all := el.Replay()
	require.Len(t, all, 3)
	assert.Equal(t, int64(7), all[0].Payload.(AmountPayload).Amount)
	assert.Equal(t, int64(9), all[2].Payload.(AmountPayload).Amount)
}

func TestAppendWritesThroughToPersister(t *testing.T) {
	p := &recordingPersister{done: make(chan struct{})}
	el := NewEventLog(p, 0)
	el.Append(New(EventTypeLevelUp, "ana", "", LevelUpPayload{From: 1, To: 2}), New(EventTypeGameSaved, "ana", "", nil))

	select {
	case <-p.done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected persister to receive both events")
	}
}

func TestSince(t *testing.T) {
	el := NewEventLog(nil, 0)
	old := New(EventTypeTapCollected, "ana", "", nil)
	old.Timestamp = time.Now().Add(-time.Hour)
	el.Append(old, New(EventTypeTapCollected, "ana", "", nil))

	assert.Len(t, el.Since(time.Now().Add(-time.Minute)), 1)
}

func TestGenerateEventIDIsUnique(t *testing.T) {
	assert.NotEqual(t, GenerateEventID(), GenerateEventID())
}
