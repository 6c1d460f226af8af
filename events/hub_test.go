package events

import (
	"testing"
	"time"
)

func TestPublishWithoutSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		hub.Publish("nobody", Event{Type: TypeProgress, Message: "hola"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no subscriber")
	}
}

func TestSubscribeReceivesPublishedEvents(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe("s1")
	defer cancel()

	hub.Publish("s1", Event{Type: TypeProgress, Message: "Paso 1/5", Step: 1, TotalSteps: 5})
	hub.Publish("otro", Event{Type: TypeProgress, Message: "ajeno"})

	select {
	case got := <-ch:
		if got.Message != "Paso 1/5" || got.Step != 1 {
			t.Errorf("received %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}

	select {
	case got := <-ch:
		t.Fatalf("received event for another session: %+v", got)
	default:
	}
}

func TestCancelRemovesSubscription(t *testing.T) {
	hub := NewHub()

	_, cancel := hub.Subscribe("s1")
	if hub.Subscribers("s1") != 1 {
		t.Fatalf("Subscribers = %d, want 1", hub.Subscribers("s1"))
	}

	cancel()
	cancel()
	if hub.Subscribers("s1") != 0 {
		t.Errorf("Subscribers after cancel = %d, want 0", hub.Subscribers("s1"))
	}
}

func TestFullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()

	ch, cancel := hub.Subscribe("s1")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish("s1", Event{Type: TypeHeartbeat, Message: "espera"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer")
	}

	if len(ch) != subscriberBuffer {
		t.Errorf("buffered events = %d, want %d", len(ch), subscriberBuffer)
	}
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		typ  Type
		want bool
	}{
		{TypeProgress, false},
		{TypeHeartbeat, false},
		{TypeResult, true},
		{TypeError, true},
	}

	for _, tt := range tests {
		if got := (Event{Type: tt.typ}).Terminal(); got != tt.want {
			t.Errorf("Terminal(%s) = %v, want %v", tt.typ, got, tt.want)
		}
	}
}
