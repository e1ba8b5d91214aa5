package modal

// EventName identifies a lifecycle event.
type EventName string

const (
	EventOpen   EventName = "open"
	EventOpened EventName = "opened"
	EventClose  EventName = "close"
	EventClosed EventName = "closed"
)

// Events lists the lifecycle events in the order a full open/close cycle emits them.
var Events = []EventName{EventOpen, EventOpened, EventClose, EventClosed}

// Valid reports whether n is one of the four lifecycle events.
func (n EventName) Valid() bool {
	switch n {
	case EventOpen, EventOpened, EventClose, EventClosed:
		return true
	default:
		return false
	}
}

// Cancelable reports whether listeners of n may veto the state change.
// Only the request events (open, close) are cancelable; opened and closed
// are completion notices.
func (n EventName) Cancelable() bool {
	return n == EventOpen || n == EventClose
}

// Event is passed to every listener of a single dispatch.
type Event struct {
	name       EventName
	cancelable bool
	prevented  bool
	target     *Modal
}

func newEvent(name EventName, target *Modal) *Event {
	return &Event{name: name, cancelable: name.Cancelable(), target: target}
}

// Name returns the event name.
func (e *Event) Name() EventName { return e.name }

// Cancelable reports whether PreventDefault has any effect.
func (e *Event) Cancelable() bool { return e.cancelable }

// Target returns the Modal that emitted the event.
func (e *Event) Target() *Modal { return e.target }

// PreventDefault requests that the pending state change be skipped. It is
// ignored on non-cancelable events.
func (e *Event) PreventDefault() {
	if e.cancelable {
		e.prevented = true
	}
}

// DefaultPrevented reports whether any listener so far requested cancellation.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// Listener receives lifecycle events.
type Listener func(e *Event)

// ListenerID identifies a registration returned by On; pass it to Off.
type ListenerID uint64

type listener struct {
	id      ListenerID
	fn      Listener
	once    bool
	removed bool
}
