package reservation

import "sync"

// Event identifies which slice of workflow state changed.
type Event string

const (
	EventSteps     Event = "steps"
	EventCalendar  Event = "calendar"
	EventSlots     Event = "slots"
	EventSelection Event = "selection"
	EventCart      Event = "cart"
	EventQuote     Event = "quote"
)

// Listener receives change notifications. Listeners run on the mutating
// goroutine and must not call back into the emitting component.
type Listener func(Event)

type emitter struct {
	mu        sync.Mutex
	listeners []Listener
}

func (e *emitter) subscribe(fn Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	fns := make([]Listener, len(e.listeners))
	copy(fns, e.listeners)
	e.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
