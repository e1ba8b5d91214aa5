// Package dom adapts parsed HTML documents to the element contract used by
// the modal component.
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/testudy/rebase/internal/modal"
)

// ErrNotElement is returned when a node or selection is not a single element node.
var ErrNotElement = errors.New("dom: not a single element node")

// Element wraps one element node. Mutations and reads are serialised so a
// modal may update the node while another goroutine renders it.
type Element struct {
	mu  sync.RWMutex
	sel *goquery.Selection
}

// Wrap returns an Element for n.
func Wrap(n *html.Node) (*Element, error) {
	if n == nil || n.Type != html.ElementNode {
		return nil, ErrNotElement
	}
	return &Element{sel: goquery.NewDocumentFromNode(n).Selection}, nil
}

// FromSelection returns an Element for a selection holding exactly one element.
func FromSelection(sel *goquery.Selection) (*Element, error) {
	if sel == nil {
		return nil, ErrNotElement
	}
	list := Select(sel)
	if len(list) != 1 || sel.Length() != 1 {
		return nil, fmt.Errorf("%w: selection holds %d nodes", ErrNotElement, sel.Length())
	}
	return list[0], nil
}

// Node returns the wrapped node. Callers that read it concurrently with
// mutations should use ReadNode.
func (e *Element) Node() *html.Node { return e.sel.Get(0) }

// ReadNode calls fn with the node while holding the read lock.
func (e *Element) ReadNode(fn func(n *html.Node)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.sel.Get(0))
}

// AddClass implements modal.Element.
func (e *Element) AddClass(classes ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel.AddClass(classes...)
}

// RemoveClass implements modal.Element.
func (e *Element) RemoveClass(classes ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel.RemoveClass(classes...)
}

// HasClass implements modal.Element.
func (e *Element) HasClass(class string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sel.HasClass(class)
}

// SetAttr implements modal.Element.
func (e *Element) SetAttr(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel.SetAttr(name, value)
}

// RemoveAttr implements modal.Element.
func (e *Element) RemoveAttr(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sel.RemoveAttr(name)
}

// Attr returns the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sel.Attr(name)
}

// Classes returns the class list in document order.
func (e *Element) Classes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	class, _ := e.sel.Attr("class")
	return strings.Fields(class)
}

// OuterHTML renders the element and its subtree.
func (e *Element) OuterHTML() (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return goquery.OuterHtml(e.sel)
}

// NodeList is an ordered set of elements.
type NodeList []*Element

// Len implements modal.Collection.
func (l NodeList) Len() int { return len(l) }

// Item implements modal.Collection.
func (l NodeList) Item(i int) modal.Element { return l[i] }

// Select wraps the element nodes of sel, skipping text and comment nodes.
func Select(sel *goquery.Selection) NodeList {
	if sel == nil {
		return nil
	}
	out := make(NodeList, 0, sel.Length())
	for _, n := range sel.Nodes {
		if el, err := Wrap(n); err == nil {
			out = append(out, el)
		}
	}
	return out
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return doc, nil
}

// ParseString reads an HTML document from markup.
func ParseString(markup string) (*goquery.Document, error) {
	return Parse(strings.NewReader(markup))
}

// Query returns the elements of doc matching selector.
func Query(doc *goquery.Document, selector string) NodeList {
	if doc == nil {
		return nil
	}
	return Select(doc.Find(selector))
}
