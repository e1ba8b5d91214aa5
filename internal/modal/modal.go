// Package modal implements the dialog overlay component: an open/closed state
// machine over a single element, cancelable lifecycle events, and completion
// events timed to the element's CSS transition.
package modal

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// DefaultActiveClass is the class that marks the open visual state.
const DefaultActiveClass = "active"

var (
	// ErrInvalidElement is returned when the construction target is not exactly one element.
	ErrInvalidElement = errors.New("modal: target must be a single element")
	// ErrUnknownEvent is returned when registering for a name outside the lifecycle events.
	ErrUnknownEvent = errors.New("modal: unknown event")
	// ErrNilListener is returned when registering a nil callback.
	ErrNilListener = errors.New("modal: nil listener")
)

// Option customises a Modal.
type Option func(*Modal)

// WithClock overrides the clock used for completion events. The clock must
// not invoke callbacks synchronously from AfterFunc.
func WithClock(clock Clock) Option {
	return func(m *Modal) {
		if clock != nil {
			m.watcher.clock = clock
		}
	}
}

// WithStyles sets the source consulted for transition durations.
func WithStyles(styles StyleSource) Option {
	return func(m *Modal) {
		if styles != nil {
			m.watcher.styles = styles
		}
	}
}

// WithLogger attaches a logger for state-change diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Modal) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithActiveClass overrides the class toggled on open.
func WithActiveClass(class string) Option {
	return func(m *Modal) {
		if class != "" {
			m.activeClass = class
		}
	}
}

// Modal drives one element between its closed and open presentation.
// All methods are safe for concurrent use; listeners run without internal
// locks held and may call back into the Modal.
type Modal struct {
	el          Element
	watcher     transitionWatcher
	logger      *zap.Logger
	activeClass string

	mu          sync.Mutex
	open        bool
	destroyed   bool
	dispatching map[EventName]bool
	generation  uint64
	timer       Timer
	nextID      ListenerID
	listeners   map[EventName][]*listener
}

// New constructs a Modal for target, which must resolve to exactly one
// element: an Element, a one-item []Element, or a one-item Collection.
func New(target any, opts ...Option) (*Modal, error) {
	el, err := resolveElement(target)
	if err != nil {
		return nil, err
	}
	m := &Modal{
		el:          el,
		watcher:     transitionWatcher{clock: SystemClock{}, styles: noStyles{}},
		logger:      zap.NewNop(),
		activeClass: DefaultActiveClass,
		dispatching: make(map[EventName]bool, 2),
		listeners:   make(map[EventName][]*listener, len(Events)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Must is like New but panics on an invalid target.
func Must(target any, opts ...Option) *Modal {
	m, err := New(target, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Element returns the managed element.
func (m *Modal) Element() Element { return m.el }

// IsOpen reports the logical state.
func (m *Modal) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// IsDestroyed reports whether Destroy has been called.
func (m *Modal) IsDestroyed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destroyed
}

// Open shows the modal. It dispatches the cancelable open event and, unless a
// listener prevented it, applies the open presentation and schedules opened.
// It reports whether the state changed; calls on a destroyed or already open
// modal are no-ops.
func (m *Modal) Open() bool {
	return m.transition(EventOpen, EventOpened, true)
}

// Close hides the modal, mirroring Open with the close and closed events.
func (m *Modal) Close() bool {
	return m.transition(EventClose, EventClosed, false)
}

func (m *Modal) transition(request, done EventName, target bool) bool {
	m.mu.Lock()
	if m.destroyed || m.open == target || m.dispatching[request] {
		m.mu.Unlock()
		return false
	}
	m.dispatching[request] = true
	m.mu.Unlock()

	ev := newEvent(request, m)
	m.dispatch(ev)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.dispatching, request)
	if ev.DefaultPrevented() {
		m.logger.Debug("modal transition prevented", zap.String("event", string(request)))
		return false
	}
	if m.destroyed || m.open == target {
		return false
	}

	if target {
		m.el.AddClass(m.activeClass)
		m.el.SetAttr("aria-hidden", "false")
	} else {
		m.el.RemoveClass(m.activeClass)
		m.el.SetAttr("aria-hidden", "true")
	}
	m.open = target
	m.generation++
	gen := m.generation

	if m.timer != nil {
		m.timer.Stop()
	}
	timer, d := m.watcher.watch(m.el, func() { m.complete(done, target, gen) })
	m.timer = timer
	m.logger.Debug("modal transition started",
		zap.String("event", string(request)),
		zap.Duration("transition", d),
	)
	return true
}

func (m *Modal) complete(name EventName, wantOpen bool, gen uint64) {
	m.mu.Lock()
	stale := m.destroyed || m.open != wantOpen || m.generation != gen
	if !stale {
		m.timer = nil
	}
	m.mu.Unlock()
	if stale {
		m.logger.Debug("modal completion dropped", zap.String("event", string(name)))
		return
	}
	m.dispatch(newEvent(name, m))
}

// Destroy permanently disables the modal. It stops any pending completion
// event and drops all listeners; the element is left in the document.
func (m *Modal) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return
	}
	m.destroyed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	for _, entries := range m.listeners {
		for _, l := range entries {
			l.removed = true
		}
	}
	m.listeners = make(map[EventName][]*listener)
	m.logger.Debug("modal destroyed")
}

// On registers fn for name. With once set, the registration is removed before
// its first invocation. Registering on a destroyed modal is accepted and
// ignored, returning a zero ID.
func (m *Modal) On(name EventName, fn Listener, once bool) (ListenerID, error) {
	if !name.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	if fn == nil {
		return 0, ErrNilListener
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyed {
		return 0, nil
	}
	m.nextID++
	id := m.nextID
	m.listeners[name] = append(m.listeners[name], &listener{id: id, fn: fn, once: once})
	return id, nil
}

// Once registers fn for a single invocation.
func (m *Modal) Once(name EventName, fn Listener) (ListenerID, error) {
	return m.On(name, fn, true)
}

// Off removes the registration id from name. Unknown ids are ignored.
func (m *Modal) Off(name EventName, id ListenerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.listeners[name]
	for i, l := range entries {
		if l.id == id {
			l.removed = true
			m.listeners[name] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// dispatch invokes the listeners registered when it starts, in order. Every
// listener runs even after one prevents the default action.
func (m *Modal) dispatch(ev *Event) {
	m.mu.Lock()
	snapshot := append([]*listener(nil), m.listeners[ev.name]...)
	m.mu.Unlock()

	for _, l := range snapshot {
		if !m.claim(ev.name, l) {
			continue
		}
		l.fn(ev)
	}
}

// claim reports whether l is still registered, unregistering it first when it
// is a once listener.
func (m *Modal) claim(name EventName, l *listener) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.removed {
		return false
	}
	if l.once {
		l.removed = true
		entries := m.listeners[name]
		for i, e := range entries {
			if e == l {
				m.listeners[name] = append(entries[:i:i], entries[i+1:]...)
				break
			}
		}
	}
	return true
}
