package modal

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeElement struct {
	mu      sync.Mutex
	classes map[string]bool
	attrs   map[string]string
}

func newFakeElement() *fakeElement {
	return &fakeElement{classes: map[string]bool{"modal": true}, attrs: map[string]string{}}
}

func (e *fakeElement) AddClass(classes ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range classes {
		e.classes[c] = true
	}
}

func (e *fakeElement) RemoveClass(classes ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range classes {
		delete(e.classes, c)
	}
}

func (e *fakeElement) HasClass(class string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.classes[class]
}

func (e *fakeElement) SetAttr(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs[name] = value
}

func (e *fakeElement) RemoveAttr(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.attrs, name)
}

type fakeList []Element

func (l fakeList) Len() int           { return len(l) }
func (l fakeList) Item(i int) Element { return l[i] }

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward, firing due timers in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
	}
}

type recorder struct {
	mu     sync.Mutex
	events []EventName
}

func (r *recorder) listen(t *testing.T, m *Modal) {
	t.Helper()
	for _, name := range Events {
		_, err := m.On(name, func(e *Event) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e.Name())
		}, false)
		require.NoError(t, err)
	}
}

func (r *recorder) seen() []EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EventName(nil), r.events...)
}

func (r *recorder) count(name EventName) int {
	n := 0
	for _, e := range r.seen() {
		if e == name {
			n++
		}
	}
	return n
}

func fixedStyles(duration string) StyleSource {
	return StyleSourceFunc(func(_ Element, property string) (string, bool) {
		if property == "transition-duration" {
			return duration, true
		}
		return "", false
	})
}

func newTestModal(t *testing.T, duration string) (*Modal, *fakeElement, *fakeClock) {
	t.Helper()
	el := newFakeElement()
	clock := &fakeClock{}
	m, err := New(el, WithClock(clock), WithStyles(fixedStyles(duration)))
	require.NoError(t, err)
	return m, el, clock
}

func TestNewAcceptsSingleElement(t *testing.T) {
	t.Parallel()

	el := newFakeElement()

	m, err := New(el)
	require.NoError(t, err)
	require.IsType(t, &Modal{}, m)
	require.IsType(t, &Modal{}, Must(el))
	require.Same(t, el, m.Element())

	fromSlice, err := New([]Element{el})
	require.NoError(t, err)
	require.Same(t, el, fromSlice.Element())

	fromList, err := New(fakeList{el})
	require.NoError(t, err)
	require.Same(t, el, fromList.Element())

	require.False(t, m.IsOpen())
	require.False(t, m.IsDestroyed())
}

func TestNewRejectsInvalidTargets(t *testing.T) {
	t.Parallel()

	var nilElement *fakeElement
	cases := map[string]any{
		"nil":            nil,
		"selector":       ".modal",
		"typed nil":      nilElement,
		"empty slice":    []Element{},
		"two elements":   []Element{newFakeElement(), newFakeElement()},
		"empty list":     fakeList{},
		"list of two":    fakeList{newFakeElement(), newFakeElement()},
		"unrelated type": 42,
	}
	for name, target := range cases {
		target := target
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			m, err := New(target)
			require.ErrorIs(t, err, ErrInvalidElement)
			require.Nil(t, m)
			require.Panics(t, func() { Must(target) })
		})
	}
}

func TestOpenFiresOpenedAfterTransition(t *testing.T) {
	t.Parallel()

	m, el, clock := newTestModal(t, ".25s")
	rec := &recorder{}
	rec.listen(t, m)

	require.True(t, m.Open())
	require.True(t, m.IsOpen())
	require.True(t, el.HasClass(DefaultActiveClass))
	require.Equal(t, "false", el.attrs["aria-hidden"])
	require.Equal(t, []EventName{EventOpen}, rec.seen())

	clock.Advance(249 * time.Millisecond)
	require.Equal(t, 0, rec.count(EventOpened))

	clock.Advance(time.Millisecond)
	require.Equal(t, []EventName{EventOpen, EventOpened}, rec.seen())

	clock.Advance(time.Second)
	require.Equal(t, 1, rec.count(EventOpened))
}

func TestOpenIsIdempotentWhileOpen(t *testing.T) {
	t.Parallel()

	m, _, clock := newTestModal(t, "100ms")
	rec := &recorder{}
	rec.listen(t, m)

	require.True(t, m.Open())
	require.False(t, m.Open())
	clock.Advance(50 * time.Millisecond)
	require.False(t, m.Open())
	clock.Advance(time.Second)

	require.Equal(t, []EventName{EventOpen, EventOpened}, rec.seen())
}

func TestOpenCloseCycleRepeats(t *testing.T) {
	t.Parallel()

	m, el, clock := newTestModal(t, "0.25s")
	rec := &recorder{}
	rec.listen(t, m)

	for i := 0; i < 2; i++ {
		require.True(t, m.Open())
		clock.Advance(350 * time.Millisecond)
		require.True(t, el.HasClass(DefaultActiveClass))
		require.True(t, m.IsOpen())

		require.True(t, m.Close())
		clock.Advance(350 * time.Millisecond)
		require.False(t, el.HasClass(DefaultActiveClass))
		require.Equal(t, "true", el.attrs["aria-hidden"])
		require.False(t, m.IsOpen())
	}

	cycle := []EventName{EventOpen, EventOpened, EventClose, EventClosed}
	require.Equal(t, append(append([]EventName(nil), cycle...), cycle...), rec.seen())
}

func TestCloseIsNoopWhenClosed(t *testing.T) {
	t.Parallel()

	m, el, clock := newTestModal(t, "")
	rec := &recorder{}
	rec.listen(t, m)

	require.False(t, m.Close())
	clock.Advance(time.Second)
	require.Empty(t, rec.seen())
	require.Empty(t, el.attrs)
}

func TestDestroyDisablesOpen(t *testing.T) {
	t.Parallel()

	m, el, clock := newTestModal(t, ".25s")
	rec := &recorder{}
	rec.listen(t, m)

	m.Destroy()
	m.Destroy()
	require.True(t, m.IsDestroyed())

	require.False(t, m.Open())
	clock.Advance(time.Second)

	require.False(t, m.IsOpen())
	require.False(t, el.HasClass(DefaultActiveClass))
	require.Empty(t, el.attrs)
	require.Empty(t, rec.seen())
}

func TestDestroyWhileOpenKeepsPresentation(t *testing.T) {
	t.Parallel()

	m, el, clock := newTestModal(t, ".25s")
	rec := &recorder{}
	rec.listen(t, m)

	require.True(t, m.Open())
	m.Destroy()
	clock.Advance(time.Second)

	require.Equal(t, []EventName{EventOpen}, rec.seen(), "pending opened must not fire after destroy")
	require.False(t, m.Close())
	require.True(t, el.HasClass(DefaultActiveClass))
}

func TestPreventDefaultCancelsOpen(t *testing.T) {
	t.Parallel()

	m, el, clock := newTestModal(t, ".25s")
	rec := &recorder{}

	var laterRan bool
	_, err := m.On(EventOpen, func(e *Event) {
		require.True(t, e.Cancelable())
		e.PreventDefault()
		require.False(t, el.HasClass(DefaultActiveClass))
	}, false)
	require.NoError(t, err)
	_, err = m.On(EventOpen, func(e *Event) {
		laterRan = true
		require.True(t, e.DefaultPrevented())
	}, false)
	require.NoError(t, err)
	rec.listen(t, m)

	require.False(t, m.Open())
	clock.Advance(time.Second)

	require.True(t, laterRan, "listeners after a cancellation still run")
	require.False(t, m.IsOpen())
	require.False(t, el.HasClass(DefaultActiveClass))
	require.Empty(t, el.attrs)
	require.Equal(t, []EventName{EventOpen}, rec.seen())
}

func TestPreventDefaultCancelsClose(t *testing.T) {
	t.Parallel()

	m, el, clock := newTestModal(t, ".25s")
	rec := &recorder{}
	rec.listen(t, m)
	_, err := m.On(EventClose, func(e *Event) { e.PreventDefault() }, false)
	require.NoError(t, err)

	require.True(t, m.Open())
	clock.Advance(time.Second)

	require.False(t, m.Close())
	clock.Advance(time.Second)

	require.True(t, m.IsOpen())
	require.True(t, el.HasClass(DefaultActiveClass))
	require.Equal(t, []EventName{EventOpen, EventOpened, EventClose}, rec.seen())
}

func TestCompletionEventsIgnorePreventDefault(t *testing.T) {
	t.Parallel()

	m, el, clock := newTestModal(t, ".1s")
	for _, name := range []EventName{EventOpened, EventClosed} {
		_, err := m.On(name, func(e *Event) {
			require.False(t, e.Cancelable())
			e.PreventDefault()
			require.False(t, e.DefaultPrevented())
		}, false)
		require.NoError(t, err)
	}

	require.True(t, m.Open())
	clock.Advance(time.Second)
	require.True(t, m.IsOpen())
	require.True(t, el.HasClass(DefaultActiveClass))

	require.True(t, m.Close())
	clock.Advance(time.Second)
	require.False(t, m.IsOpen())
	require.False(t, el.HasClass(DefaultActiveClass))
}

func TestOffRemovesListener(t *testing.T) {
	t.Parallel()

	m, _, clock := newTestModal(t, "")
	var calls int
	id, err := m.On(EventOpen, func(*Event) { calls++ }, false)
	require.NoError(t, err)

	m.Off(EventOpen, id)
	m.Off(EventOpen, id)
	m.Off(EventClosed, 999)

	require.True(t, m.Open())
	clock.Advance(time.Second)
	require.Zero(t, calls)
}

func TestOffDuringDispatchSkipsLaterListener(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModal(t, "")
	var second ListenerID
	var secondCalls int
	_, err := m.On(EventOpen, func(*Event) { m.Off(EventOpen, second) }, false)
	require.NoError(t, err)
	second, err = m.On(EventOpen, func(*Event) { secondCalls++ }, false)
	require.NoError(t, err)

	require.True(t, m.Open())
	require.Zero(t, secondCalls)
}

func TestOnceListenerFiresOnce(t *testing.T) {
	t.Parallel()

	m, _, clock := newTestModal(t, "")
	var calls int
	_, err := m.Once(EventOpened, func(*Event) { calls++ })
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.True(t, m.Open())
		clock.Advance(time.Millisecond)
		require.True(t, m.Close())
		clock.Advance(time.Millisecond)
	}
	require.Equal(t, 1, calls)
}

func TestOnceListenerIsRemovedBeforeReentrantDispatch(t *testing.T) {
	t.Parallel()

	m, _, clock := newTestModal(t, "")
	var onceCalls, opens int
	_, err := m.Once(EventOpen, func(*Event) {
		onceCalls++
		// Re-entrant open is ignored while the open dispatch is in flight.
		require.False(t, m.Open())
	})
	require.NoError(t, err)
	_, err = m.On(EventOpen, func(*Event) { opens++ }, false)
	require.NoError(t, err)

	require.True(t, m.Open())
	clock.Advance(time.Millisecond)
	require.True(t, m.Close())
	clock.Advance(time.Millisecond)
	require.True(t, m.Open())

	require.Equal(t, 1, onceCalls)
	require.Equal(t, 2, opens)
}

func TestListenersRunInRegistrationOrder(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModal(t, "")
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		_, err := m.On(EventOpen, func(*Event) { order = append(order, i) }, false)
		require.NoError(t, err)
	}
	var added bool
	_, err := m.On(EventOpen, func(*Event) {
		if !added {
			added = true
			_, _ = m.On(EventOpen, func(*Event) { order = append(order, 99) }, false)
		}
	}, false)
	require.NoError(t, err)

	require.True(t, m.Open())
	require.Equal(t, []int{0, 1, 2, 3, 4}, order, "listeners added mid-dispatch wait for the next dispatch")
}

func TestOnValidatesArguments(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModal(t, "")

	_, err := m.On("shown", func(*Event) {}, false)
	require.ErrorIs(t, err, ErrUnknownEvent)

	_, err = m.On(EventOpen, nil, false)
	require.ErrorIs(t, err, ErrNilListener)
}

func TestOnAfterDestroyIsIgnored(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModal(t, "")
	m.Destroy()

	id, err := m.On(EventOpen, func(*Event) {}, false)
	require.NoError(t, err)
	require.Zero(t, id)

	_, err = m.On("bogus", func(*Event) {}, false)
	require.ErrorIs(t, err, ErrUnknownEvent)
}

func TestStaleOpenedIsDroppedAfterClose(t *testing.T) {
	t.Parallel()

	m, el, clock := newTestModal(t, ".25s")
	rec := &recorder{}
	rec.listen(t, m)

	require.True(t, m.Open())
	clock.Advance(100 * time.Millisecond)
	require.True(t, m.Close())
	clock.Advance(time.Second)

	require.Equal(t, []EventName{EventOpen, EventClose, EventClosed}, rec.seen())
	require.False(t, el.HasClass(DefaultActiveClass))
}

func TestStaleCompletionDroppedAcrossQuickToggle(t *testing.T) {
	t.Parallel()

	m, _, clock := newTestModal(t, ".25s")
	rec := &recorder{}
	rec.listen(t, m)

	require.True(t, m.Open())
	require.True(t, m.Close())
	require.True(t, m.Open())
	clock.Advance(time.Second)

	require.Equal(t, 1, rec.count(EventOpened))
	require.Zero(t, rec.count(EventClosed))
	require.True(t, m.IsOpen())
}

func TestListenerMayDriveModal(t *testing.T) {
	t.Parallel()

	m, el, clock := newTestModal(t, ".1s")
	rec := &recorder{}
	rec.listen(t, m)
	_, err := m.Once(EventOpened, func(e *Event) { e.Target().Close() })
	require.NoError(t, err)

	require.True(t, m.Open())
	clock.Advance(time.Second)

	require.Equal(t, []EventName{EventOpen, EventOpened, EventClose, EventClosed}, rec.seen())
	require.False(t, el.HasClass(DefaultActiveClass))
}

func TestWithActiveClass(t *testing.T) {
	t.Parallel()

	el := newFakeElement()
	m, err := New(el, WithActiveClass("is-visible"), WithClock(&fakeClock{}))
	require.NoError(t, err)

	require.True(t, m.Open())
	require.True(t, el.HasClass("is-visible"))
	require.False(t, el.HasClass(DefaultActiveClass))
}

func TestSystemClockDeliversCompletion(t *testing.T) {
	t.Parallel()

	m, err := New(newFakeElement())
	require.NoError(t, err)

	done := make(chan struct{})
	_, err = m.Once(EventOpened, func(*Event) { close(done) })
	require.NoError(t, err)

	require.True(t, m.Open())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("opened was not delivered")
	}
}
