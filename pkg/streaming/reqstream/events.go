package reqstream

import (
	"sync"

	"github.com/sirupsen/logrus"

	rserrors "github.com/vnykmshr/reqstream/pkg/common/errors"
)

// Reserved event names.
const (
	// DataEvent is emitted for every settled item, in admission order.
	DataEvent = "DATA"

	// EndEvent is emitted once, when the stream finishes.
	EndEvent = "END"
)

// DefaultEvents returns the reserved data and end event names.
func DefaultEvents() (data, end string) {
	return DataEvent, EndEvent
}

// Event is passed to listeners. Item is nil for EndEvent.
type Event[T any] struct {
	Name string
	Item *Item[T]
}

// Listener is a registered event callback. Listeners are compared by
// pointer: registering the same *Listener twice makes it fire twice, and
// RemoveListeners removes every occurrence.
type Listener[T any] struct {
	fn func(Event[T]) error
}

// NewListener wraps fn in a Listener.
func NewListener[T any](fn func(Event[T]) error) *Listener[T] {
	return &Listener[T]{fn: fn}
}

// eventHub maps event names to ordered listener lists.
type eventHub[T any] struct {
	mu        sync.Mutex
	listeners map[string][]*Listener[T]
	log       logrus.FieldLogger
}

func newEventHub[T any](log logrus.FieldLogger) *eventHub[T] {
	return &eventHub[T]{
		listeners: make(map[string][]*Listener[T]),
		log:       log,
	}
}

func (h *eventHub[T]) on(event string, l *Listener[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners[event] = append(h.listeners[event], l)
}

// emit calls the listeners registered when emission starts, in order. The
// first failing listener stops the pass.
func (h *eventHub[T]) emit(event string, ev Event[T]) error {
	h.mu.Lock()
	current := h.listeners[event]
	snapshot := make([]*Listener[T], len(current))
	copy(snapshot, current)
	h.mu.Unlock()

	for _, l := range snapshot {
		if err := l.fn(ev); err != nil {
			return &rserrors.ListenerError{Event: event, Cause: err}
		}
	}
	return nil
}

func (h *eventHub[T]) remove(event string, l *Listener[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current := h.listeners[event]
	kept := make([]*Listener[T], 0, len(current))
	for _, existing := range current {
		if existing != l {
			kept = append(kept, existing)
		}
	}
	if len(kept) == 0 {
		delete(h.listeners, event)
		return
	}
	h.listeners[event] = kept
}

func (h *eventHub[T]) removeAll(except ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for event, list := range h.listeners {
		if contains(except, event) {
			continue
		}
		h.log.WithFields(logrus.Fields{"event": event, "count": len(list)}).Debug("listeners removed")
		delete(h.listeners, event)
	}
}

func (h *eventHub[T]) count(event string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners[event])
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
