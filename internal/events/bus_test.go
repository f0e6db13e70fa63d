package events

import (
	"sync"
	"testing"
	"time"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus(16)
	defer bus.Close()

	var mu sync.Mutex
	var got []Event
	done := make(chan struct{})

	bus.Subscribe(func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
		close(done)
	}, EventActivityCompleted)

	bus.Publish(NewEvent(EventActivityStarted, SourceScheduler, nil)) // filtered out
	bus.Publish(NewEvent(EventActivityCompleted, SourceActivity, map[string]any{"activity": "draw"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("events: got %d, want 1", len(got))
	}
	if got[0].Type != EventActivityCompleted {
		t.Errorf("type: got %s", got[0].Type)
	}
	if got[0].Payload["activity"] != "draw" {
		t.Errorf("payload: got %v", got[0].Payload)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(16)
	defer bus.Close()

	fired := make(chan struct{}, 4)
	unsub := bus.Subscribe(func(Event) { fired <- struct{}{} })
	unsub()

	bus.Publish(NewEvent(EventActivityStarted, SourceScheduler, nil))

	select {
	case <-fired:
		t.Fatal("unsubscribed handler fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRingBufferHistory(t *testing.T) {
	buf := NewRingBuffer(3)
	for i := 0; i < 5; i++ {
		buf.Add(NewEvent(EventActivityStarted, SourceScheduler, map[string]any{"i": i}))
	}

	got := buf.Get(3)
	if len(got) != 3 {
		t.Fatalf("got %d events", len(got))
	}
	// The three newest survive, oldest first.
	for i, e := range got {
		if e.Payload["i"] != 2+i {
			t.Errorf("event %d: got i=%v, want %d", i, e.Payload["i"], 2+i)
		}
	}
}

func TestBusPublishAfterClose(t *testing.T) {
	bus := NewBus(4)
	bus.Close()
	bus.Publish(NewEvent(EventActivityStarted, SourceScheduler, nil)) // must not panic
}
