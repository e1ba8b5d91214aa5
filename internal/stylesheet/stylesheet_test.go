package stylesheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/testudy/rebase/internal/dom"
	"github.com/testudy/rebase/internal/modal"
)

const ratchetModal = `
.modal {
  position: fixed;
  opacity: 0;
  -webkit-transition: -webkit-transform .25s, opacity 1ms .25s;
          transition: transform .25s, opacity 1ms .25s;
  -webkit-transition-timing-function: cubic-bezier(.1, .5, .1, 1);
}
.modal.active {
  height: 100%;
  opacity: 1;
  -webkit-transition: -webkit-transform .25s;
          transition: transform .25s;
}
@media (min-width: 400px) {
  .modal { opacity: .5; }
}
.modal::before { content: ""; }
`

func element(t *testing.T, markup, selector string) *dom.Element {
	t.Helper()
	doc, err := dom.ParseString(markup)
	require.NoError(t, err)
	list := dom.Query(doc, selector)
	require.Len(t, list, 1)
	return list[0]
}

func TestParseSkipsAtRulesAndPseudoElements(t *testing.T) {
	t.Parallel()

	sheet, err := Parse(ratchetModal)
	require.NoError(t, err)
	require.Equal(t, 2, sheet.Len())
	require.Equal(t, 2, sheet.Skipped())
}

func TestLookupFollowsActiveClass(t *testing.T) {
	t.Parallel()

	sheet, err := Parse(ratchetModal)
	require.NoError(t, err)
	el := element(t, `<div class="modal"><p>hi</p></div>`, ".modal")

	opacity, ok := sheet.Lookup(el.Node(), "opacity")
	require.True(t, ok)
	require.Equal(t, "0", opacity)

	el.AddClass("active")
	opacity, ok = sheet.Lookup(el.Node(), "opacity")
	require.True(t, ok)
	require.Equal(t, "1", opacity)

	height, ok := sheet.Lookup(el.Node(), "height")
	require.True(t, ok)
	require.Equal(t, "100%", height)

	_, ok = sheet.Lookup(el.Node(), "color")
	require.False(t, ok)
}

func TestShorthandExpandsToDuration(t *testing.T) {
	t.Parallel()

	sheet, err := Parse(ratchetModal)
	require.NoError(t, err)
	el := element(t, `<div class="modal"></div>`, ".modal")

	value, ok := sheet.StyleValue(el, "transition-duration")
	require.True(t, ok)
	require.Equal(t, ".25s, 1ms", value)
	delay, ok := sheet.StyleValue(el, "transition-delay")
	require.True(t, ok)
	require.Equal(t, "0s, .25s", delay)

	require.Equal(t, 250*time.Millisecond, modal.TransitionDuration(sheet, el))
}

func TestCascadeOrdering(t *testing.T) {
	t.Parallel()

	sheet, err := Parse(`
#dialog { color: red; }
.modal { color: blue; transition-duration: 2s; }
div.modal { color: green; }
.modal { color: black; }
.modal { transition: opacity 300ms; }
.late { color: purple !important; }
`)
	require.NoError(t, err)
	el := element(t, `<div class="modal late" id="dialog"></div>`, "#dialog")

	color, ok := sheet.Lookup(el.Node(), "color")
	require.True(t, ok)
	require.Equal(t, "purple", color, "important wins over specificity")

	plain := element(t, `<div class="modal"></div>`, ".modal")
	color, _ = sheet.Lookup(plain.Node(), "color")
	require.Equal(t, "green", color, "higher specificity wins over source order")

	duration, _ := sheet.Lookup(plain.Node(), "transition-duration")
	require.Equal(t, "300ms", duration, "later shorthand overrides earlier longhand")
}

func TestPrefixedFallback(t *testing.T) {
	t.Parallel()

	sheet, err := Parse(`.modal { -webkit-transition: opacity .4s ease-in; }`)
	require.NoError(t, err)
	el := element(t, `<section class="modal"></section>`, ".modal")

	_, ok := sheet.StyleValue(el, "transition-duration")
	require.False(t, ok)
	require.Equal(t, 400*time.Millisecond, modal.TransitionDuration(sheet, el))
}

func TestModalUsesSheetForCompletion(t *testing.T) {
	t.Parallel()

	sheet, err := Parse(ratchetModal)
	require.NoError(t, err)
	el := element(t, `<div class="modal"></div>`, ".modal")

	m, err := modal.New(el, modal.WithStyles(sheet))
	require.NoError(t, err)
	opened := make(chan struct{})
	_, err = m.Once(modal.EventOpened, func(*modal.Event) { close(opened) })
	require.NoError(t, err)

	start := time.Now()
	require.True(t, m.Open())
	select {
	case <-opened:
	case <-time.After(2 * time.Second):
		t.Fatal("opened not delivered")
	}
	require.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)

	opacity, ok := sheet.StyleValue(el, "opacity")
	require.True(t, ok)
	require.Equal(t, "1", opacity)
}

func TestStyleValueIgnoresForeignElements(t *testing.T) {
	t.Parallel()

	sheet, err := Parse(ratchetModal)
	require.NoError(t, err)
	_, ok := sheet.StyleValue(nil, "opacity")
	require.False(t, ok)
}

func TestSplitTransition(t *testing.T) {
	t.Parallel()

	durations, delays := splitTransition("opacity .3s cubic-bezier(0, 0, 1, 1) 1s, transform 2s")
	require.Equal(t, []string{".3s", "2s"}, durations)
	require.Equal(t, []string{"1s", "0s"}, delays)

	durations, _ = splitTransition("none")
	require.Equal(t, []string{"0s"}, durations)
}
