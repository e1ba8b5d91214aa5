package stylesheet

import (
	"strconv"
	"strings"
)

// expand rewrites transition shorthands into the longhands the cascade is
// queried for. Other declarations pass through unchanged.
func expand(property, value string) map[string]string {
	switch property {
	case "transition", "-webkit-transition":
		durations, delays := splitTransition(value)
		return map[string]string{
			property:               value,
			property + "-duration": strings.Join(durations, ", "),
			property + "-delay":    strings.Join(delays, ", "),
		}
	default:
		return map[string]string{property: value}
	}
}

// splitTransition returns the duration and delay of every comma-separated
// transition item. The first <time> in an item is its duration, the second
// its delay.
func splitTransition(value string) (durations, delays []string) {
	for _, item := range splitTopLevel(value, ',') {
		duration, delay := "0s", "0s"
		seen := 0
		for _, token := range strings.Fields(item) {
			if !isTime(token) {
				continue
			}
			switch seen {
			case 0:
				duration = token
			case 1:
				delay = token
			}
			seen++
		}
		durations = append(durations, duration)
		delays = append(delays, delay)
	}
	if len(durations) == 0 {
		return []string{"0s"}, []string{"0s"}
	}
	return durations, delays
}

// splitTopLevel splits s on sep outside parentheses, so timing functions
// like cubic-bezier(0, 0, 1, 1) stay whole.
func splitTopLevel(s string, sep rune) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" || len(parts) > 0 {
		parts = append(parts, tail)
	}
	return parts
}

func isTime(token string) bool {
	t := strings.ToLower(token)
	switch {
	case strings.HasSuffix(t, "ms"):
		t = strings.TrimSuffix(t, "ms")
	case strings.HasSuffix(t, "s"):
		t = strings.TrimSuffix(t, "s")
	default:
		return false
	}
	_, err := strconv.ParseFloat(t, 64)
	return err == nil
}
