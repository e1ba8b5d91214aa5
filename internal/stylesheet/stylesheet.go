// Package stylesheet resolves cascaded CSS property values for parsed HTML
// elements. Rules are parsed with douceur and matched with cascadia; only
// top-level style rules take part in the cascade, at-rules are skipped.
package stylesheet

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"

	"github.com/testudy/rebase/internal/modal"
)

// Sheet is an immutable parsed stylesheet.
type Sheet struct {
	rules   []rule
	skipped int
}

type rule struct {
	selectors []cascadia.Sel
	decls     []declaration
}

type declaration struct {
	property  string
	value     string
	important bool
	order     int
}

// Parse parses CSS source. Selectors cascadia cannot compile, and selectors
// targeting pseudo-elements, are skipped rather than failing the sheet.
func Parse(src string) (*Sheet, error) {
	parsed, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("stylesheet: parse: %w", err)
	}
	sheet := &Sheet{}
	order := 0
	for _, r := range parsed.Rules {
		if r.Kind != css.QualifiedRule {
			sheet.skipped++
			continue
		}
		compiled := rule{}
		for _, raw := range r.Selectors {
			sel, err := cascadia.Parse(strings.TrimSpace(raw))
			if err != nil || sel.PseudoElement() != "" {
				sheet.skipped++
				continue
			}
			compiled.selectors = append(compiled.selectors, sel)
		}
		if len(compiled.selectors) == 0 {
			continue
		}
		for _, d := range r.Declarations {
			for prop, value := range expand(strings.ToLower(strings.TrimSpace(d.Property)), strings.TrimSpace(d.Value)) {
				compiled.decls = append(compiled.decls, declaration{
					property:  prop,
					value:     value,
					important: d.Important,
					order:     order,
				})
			}
			order++
		}
		sheet.rules = append(sheet.rules, compiled)
	}
	return sheet, nil
}

// Read parses CSS from r.
func Read(r io.Reader) (*Sheet, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("stylesheet: read: %w", err)
	}
	return Parse(string(b))
}

// Load parses the CSS file at path.
func Load(path string) (*Sheet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stylesheet: load %s: %w", path, err)
	}
	return Parse(string(b))
}

// Len returns the number of style rules taking part in the cascade.
func (s *Sheet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Skipped returns the number of at-rules and selectors left out of the cascade.
func (s *Sheet) Skipped() int {
	if s == nil {
		return 0
	}
	return s.skipped
}

// Lookup returns the cascaded value of property for n: important
// declarations beat normal ones, then higher specificity, then later source
// order.
func (s *Sheet) Lookup(n *html.Node, property string) (string, bool) {
	if s == nil || n == nil || n.Type != html.ElementNode {
		return "", false
	}
	property = strings.ToLower(strings.TrimSpace(property))

	var (
		best     declaration
		bestSpec cascadia.Specificity
		found    bool
	)
	for _, r := range s.rules {
		spec, ok := r.match(n)
		if !ok {
			continue
		}
		for _, d := range r.decls {
			if d.property != property {
				continue
			}
			if !found || wins(d, spec, best, bestSpec) {
				best, bestSpec, found = d, spec, true
			}
		}
	}
	return best.value, found
}

// StyleValue implements modal.StyleSource for elements that expose their node.
func (s *Sheet) StyleValue(el modal.Element, property string) (string, bool) {
	var (
		value string
		ok    bool
	)
	switch e := el.(type) {
	case nodeReader:
		e.ReadNode(func(n *html.Node) { value, ok = s.Lookup(n, property) })
	case nodeHolder:
		value, ok = s.Lookup(e.Node(), property)
	}
	return value, ok
}

type nodeReader interface {
	ReadNode(fn func(n *html.Node))
}

type nodeHolder interface {
	Node() *html.Node
}

// match returns the highest specificity among the rule's selectors that match n.
func (r rule) match(n *html.Node) (cascadia.Specificity, bool) {
	var (
		best    cascadia.Specificity
		matched bool
	)
	for _, sel := range r.selectors {
		if !sel.Match(n) {
			continue
		}
		spec := sel.Specificity()
		if !matched || best.Less(spec) {
			best, matched = spec, true
		}
	}
	return best, matched
}

func wins(d declaration, spec cascadia.Specificity, best declaration, bestSpec cascadia.Specificity) bool {
	if d.important != best.important {
		return d.important
	}
	if spec != bestSpec {
		return bestSpec.Less(spec)
	}
	return d.order > best.order
}
