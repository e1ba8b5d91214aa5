// Package ui holds the HTTP handlers for the styleguide pages, the icon API
// and the modal playground.
package ui

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/testudy/rebase/internal/catalog"
	"github.com/testudy/rebase/internal/httpserver/middleware"
	"github.com/testudy/rebase/internal/icons"
	"github.com/testudy/rebase/internal/playground"
	"github.com/testudy/rebase/internal/requestctx"
	"github.com/testudy/rebase/internal/templates"
)

// IconFilesPath is the URL prefix the icon files are served under.
const IconFilesPath = "/icons/files"

// DefaultPlaygroundPage is the catalog page hosting the playground launcher.
const DefaultPlaygroundPage = "modals"

// Options configures Handlers.
type Options struct {
	Catalog        *catalog.Catalog
	IconsFS        fs.FS
	IconsDir       string
	Playground     *playground.Service
	PlaygroundPage string
	CSRFHeader     string
}

// Handlers renders pages from the catalog.
type Handlers struct {
	catalog        *catalog.Catalog
	iconsFS        fs.FS
	iconsDir       string
	playground     *playground.Service
	playgroundPage string
	csrfHeader     string
}

// New returns Handlers for opts.
func New(opts Options) *Handlers {
	page := opts.PlaygroundPage
	if page == "" {
		page = DefaultPlaygroundPage
	}
	dir := opts.IconsDir
	if dir == "" {
		dir = "."
	}
	return &Handlers{
		catalog:        opts.Catalog,
		iconsFS:        opts.IconsFS,
		iconsDir:       dir,
		playground:     opts.Playground,
		playgroundPage: page,
		csrfHeader:     opts.CSRFHeader,
	}
}

// HomeHandler renders the index page.
func (h *Handlers) HomeHandler(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, catalog.HomeSlug)
}

// PageHandler renders the catalog page named by the slug URL parameter.
func (h *Handlers) PageHandler(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, chi.URLParam(r, "slug"))
}

func (h *Handlers) renderPage(w http.ResponseWriter, r *http.Request, slug string) {
	page, err := h.catalog.Page(slug)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, catalog.ErrPageNotFound) {
			status = http.StatusNotFound
		}
		h.renderError(w, r, status, err)
		return
	}

	var body templ.Component
	switch page.Kind {
	case catalog.KindHome:
		body = templates.HomePage(page, h.catalog.Pages())
	case catalog.KindIcons, catalog.KindSVGs:
		list, err := icons.List(h.iconsFS, h.iconsDir)
		if err != nil {
			h.renderError(w, r, http.StatusInternalServerError, err)
			return
		}
		if page.Kind == catalog.KindIcons {
			body = templates.IconsPage(page, list)
		} else {
			body = templates.SVGsPage(page, list, IconFilesPath)
		}
	default:
		var extra templ.Component
		if h.playground != nil && page.Slug == h.playgroundPage {
			extra = templates.PlaygroundLauncher(middleware.CSRFTokenFromContext(r.Context()))
		}
		body = templates.DemoPage(page, extra)
	}

	h.render(w, r, http.StatusOK, page.Title, page.Path(), body)
}

// render writes body inside the page layout.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, title, active string, body templ.Component) {
	ctx := r.Context()
	layout := templates.Layout(templates.LayoutData{
		Title:       title,
		Site:        h.catalog.Site(),
		CSRFToken:   middleware.CSRFTokenFromContext(ctx),
		CSRFHeader:  h.csrfHeader,
		Environment: middleware.EnvironmentFromContext(ctx),
		Nav:         h.catalog.Nav(),
		ActivePath:  active,
	}, body)
	h.write(w, r, status, layout)
}

// write renders c without the layout.
func (h *Handlers) write(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		requestctx.Logger(r.Context()).Error("render failed", zap.Error(err))
	}
}

func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger := requestctx.Logger(r.Context())
	message := http.StatusText(status)
	if status >= http.StatusInternalServerError {
		logger.Error("page failed", zap.Error(err))
	} else {
		logger.Debug("page error", zap.Int("status", status), zap.Error(err))
		if status == http.StatusNotFound {
			message = "page not found"
		}
	}
	if middleware.IsHTMXRequest(r.Context()) {
		h.write(w, r, status, templates.ErrorPage(status, message))
		return
	}
	h.render(w, r, status, h.catalog.Site(), "", templates.ErrorPage(status, message))
}

// NotFoundHandler renders the 404 page for unmatched routes.
func (h *Handlers) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, catalog.ErrPageNotFound)
}
