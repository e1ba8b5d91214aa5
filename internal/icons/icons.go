// Package icons enumerates the SVG icon assets shown on the icon pages.
package icons

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Icon describes one SVG asset.
type Icon struct {
	Name  string `json:"name"`
	File  string `json:"file"`
	Label string `json:"label"`
}

const extension = ".svg"

var titleCaser = cases.Title(language.English)

// List returns the SVG files directly under dir in fsys, sorted by name.
// Directories and dotfiles are skipped; a missing directory yields no icons.
func List(fsys fs.FS, dir string) ([]Icon, error) {
	if fsys == nil {
		return nil, errors.New("icons: nil filesystem")
	}
	if dir == "" {
		dir = "."
	}
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Icon{}, nil
		}
		return nil, fmt.Errorf("icons: read %s: %w", dir, err)
	}

	out := make([]Icon, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		ext := path.Ext(name)
		if !strings.EqualFold(ext, extension) {
			continue
		}
		base := strings.TrimSuffix(name, ext)
		if base == "" {
			continue
		}
		out = append(out, Icon{
			Name:  base,
			File:  name,
			Label: Label(base),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Label turns a dash or underscore separated icon name into a title.
func Label(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' })
	return titleCaser.String(strings.Join(words, " "))
}

// Names returns the icon names in order.
func Names(list []Icon) []string {
	names := make([]string, len(list))
	for i, icon := range list {
		names[i] = icon.Name
	}
	return names
}
