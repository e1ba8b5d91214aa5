package modal

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// StyleSource resolves the cascaded value of a CSS property for an element.
type StyleSource interface {
	StyleValue(el Element, property string) (string, bool)
}

// StyleSourceFunc adapts a function to StyleSource.
type StyleSourceFunc func(el Element, property string) (string, bool)

// StyleValue calls f.
func (f StyleSourceFunc) StyleValue(el Element, property string) (string, bool) {
	return f(el, property)
}

type noStyles struct{}

func (noStyles) StyleValue(Element, string) (string, bool) { return "", false }

// Properties consulted for the transition duration, unprefixed first.
var transitionDurationProperties = []string{
	"transition-duration",
	"-webkit-transition-duration",
}

// TransitionDuration returns the element's current transition duration, or 0
// when no usable declaration applies.
func TransitionDuration(styles StyleSource, el Element) time.Duration {
	if styles == nil || el == nil {
		return 0
	}
	for _, prop := range transitionDurationProperties {
		value, ok := styles.StyleValue(el, prop)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		return ParseDuration(value)
	}
	return 0
}

// ParseDuration parses a CSS <time> list such as ".25s, 1ms". Bare numbers are
// read as seconds. The longest entry wins; unparsable entries count as 0.
func ParseDuration(value string) time.Duration {
	var longest time.Duration
	for _, part := range strings.Split(value, ",") {
		if d := parseTime(strings.TrimSpace(part)); d > longest {
			longest = d
		}
	}
	return longest
}

func parseTime(s string) time.Duration {
	s = strings.ToLower(s)
	unit := float64(time.Second)
	switch {
	case strings.HasSuffix(s, "ms"):
		s = strings.TrimSuffix(s, "ms")
		unit = float64(time.Millisecond)
	case strings.HasSuffix(s, "s"):
		s = strings.TrimSuffix(s, "s")
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return 0
	}
	return time.Duration(math.Round(n * unit))
}

// transitionWatcher runs a callback once the element's transition has had
// time to finish. The duration is read on every call.
type transitionWatcher struct {
	clock  Clock
	styles StyleSource
}

func (w transitionWatcher) watch(el Element, done func()) (Timer, time.Duration) {
	d := TransitionDuration(w.styles, el)
	return w.clock.AfterFunc(d, done), d
}
