// Package public embeds the static assets served under /public/static.
package public

import (
	"embed"
	"io/fs"
)

//go:embed static
var static embed.FS

// StaticFS returns the embedded static tree rooted at static/.
func StaticFS() (fs.FS, error) {
	return fs.Sub(static, "static")
}

// Stylesheet returns the bundled site stylesheet.
func Stylesheet() ([]byte, error) {
	return fs.ReadFile(static, "static/css/rebase.css")
}
