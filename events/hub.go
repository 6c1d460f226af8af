package events

import (
	"sync"

	"github.com/ArmandoArias/ia-videodog/models"
)

// Type names the event kinds delivered over a session channel.
type Type string

const (
	TypeProgress  Type = "progress"
	TypeHeartbeat Type = "progress_heartbeat"
	TypeResult    Type = "result"
	TypeError     Type = "error"
)

// Event is one message for a session. Progress events carry the step
// counters; result carries the suggestion payload; error carries only a
// message.
type Event struct {
	Type        Type                `json:"-"`
	Message     string              `json:"message,omitempty"`
	Step        int                 `json:"step,omitempty"`
	TotalSteps  int                 `json:"total_steps,omitempty"`
	Suggestions *models.Suggestions `json:"suggestions,omitempty"`
}

// Terminal reports whether the event ends the sequence for a session.
func (e Event) Terminal() bool {
	return e.Type == TypeResult || e.Type == TypeError
}

const subscriberBuffer = 16

// Hub routes events to the subscribers of a session. Delivery is
// at-most-once: publishing to a session with no subscriber, or to a
// subscriber whose buffer is full, drops the event silently.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a channel for the session. The returned cancel
// function removes the subscription; it is safe to call more than once.
func (h *Hub) Subscribe(sessionID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	subs, ok := h.sessions[sessionID]
	if !ok {
		subs = make(map[chan Event]struct{})
		h.sessions[sessionID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.sessions[sessionID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.sessions, sessionID)
				}
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber of the session without
// blocking the caller.
func (h *Hub) Publish(sessionID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.sessions[sessionID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers returns the subscriber count for a session.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
