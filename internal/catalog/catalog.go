// Package catalog loads the styleguide page catalog: page metadata, markdown
// descriptions and demo markup.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

// Kind selects how a page is rendered.
type Kind string

const (
	KindHome  Kind = "home"
	KindDemo  Kind = "demo"
	KindIcons Kind = "icons"
	KindSVGs  Kind = "svgs"
)

// HomeSlug is the slug served at the site root.
const HomeSlug = "index"

var (
	// ErrPageNotFound is returned when a slug is not in the catalog.
	ErrPageNotFound = errors.New("catalog: page not found")

	//go:embed pages.yaml
	defaultCatalog []byte
)

// Page is a rendered catalog entry.
type Page struct {
	Slug    string
	Title   string
	Kind    Kind
	Summary string
	// Description is sanitised HTML rendered from markdown.
	Description string
	// Demo is trusted component markup from the catalog file.
	Demo string
}

// Path returns the URL path of the page.
func (p Page) Path() string {
	if p.Slug == HomeSlug {
		return "/"
	}
	return "/" + p.Slug
}

// NavItem is a link in the site navigation.
type NavItem struct {
	Label string
	Href  string
}

// Catalog is an ordered, immutable set of pages.
type Catalog struct {
	site  string
	pages []Page
	index map[string]int
}

type document struct {
	Site  string      `yaml:"site"`
	Pages []pageEntry `yaml:"pages"`
}

type pageEntry struct {
	Slug        string `yaml:"slug"`
	Title       string `yaml:"title"`
	Kind        string `yaml:"kind"`
	Summary     string `yaml:"summary"`
	Description string `yaml:"description"`
	Demo        string `yaml:"demo"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// LoadFile reads a catalog from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML catalog and renders its markdown.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy := bluemonday.UGCPolicy()

	c := &Catalog{
		site:  strings.TrimSpace(doc.Site),
		index: make(map[string]int, len(doc.Pages)),
	}
	if c.site == "" {
		c.site = "REBASE"
	}
	for i, entry := range doc.Pages {
		slug := strings.ToLower(strings.TrimSpace(entry.Slug))
		if slug == "" {
			return nil, fmt.Errorf("catalog: page %d has no slug", i)
		}
		if _, dup := c.index[slug]; dup {
			return nil, fmt.Errorf("catalog: duplicate slug %q", slug)
		}
		kind, err := parseKind(entry.Kind)
		if err != nil {
			return nil, fmt.Errorf("catalog: page %q: %w", slug, err)
		}
		var buf bytes.Buffer
		if err := md.Convert([]byte(entry.Description), &buf); err != nil {
			return nil, fmt.Errorf("catalog: page %q: render description: %w", slug, err)
		}
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			title = c.site
		}
		c.index[slug] = len(c.pages)
		c.pages = append(c.pages, Page{
			Slug:        slug,
			Title:       title,
			Kind:        kind,
			Summary:     strings.TrimSpace(entry.Summary),
			Description: string(policy.SanitizeBytes(buf.Bytes())),
			Demo:        strings.TrimSpace(entry.Demo),
		})
	}
	return c, nil
}

func parseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case "":
		return KindDemo, nil
	case KindHome, KindDemo, KindIcons, KindSVGs:
		return k, nil
	default:
		return "", fmt.Errorf("unknown kind %q", raw)
	}
}

// Site returns the site name.
func (c *Catalog) Site() string { return c.site }

// Page returns the page for slug.
func (c *Catalog) Page(slug string) (Page, error) {
	i, ok := c.index[strings.ToLower(strings.TrimSpace(slug))]
	if !ok {
		return Page{}, fmt.Errorf("%w: %q", ErrPageNotFound, slug)
	}
	return c.pages[i], nil
}

// Pages returns the pages in catalog order.
func (c *Catalog) Pages() []Page {
	out := make([]Page, len(c.pages))
	copy(out, c.pages)
	return out
}

// Nav returns one link per page, labelled by slug.
func (c *Catalog) Nav() []NavItem {
	items := make([]NavItem, 0, len(c.pages))
	for _, p := range c.pages {
		label := p.Slug
		if p.Slug == HomeSlug {
			label = "home"
		}
		items = append(items, NavItem{Label: label, Href: p.Path()})
	}
	return items
}

// WithSite returns a copy of the catalog using site as the site name.
// An empty site keeps the current name.
func (c *Catalog) WithSite(site string) *Catalog {
	site = strings.TrimSpace(site)
	if site == "" || site == c.site {
		return c
	}
	out := *c
	out.site = site
	return &out
}
