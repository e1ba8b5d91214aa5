package templates

import (
	"net/url"
	"path"

	"github.com/a-h/templ"

	"github.com/testudy/rebase/internal/catalog"
	"github.com/testudy/rebase/internal/icons"
)

// HomePage lists every page with its summary.
func HomePage(page catalog.Page, pages []catalog.Page) templ.Component {
	return component(func(w *writer) {
		w.raw(`<section class="content-padded page-home">`)
		w.render(templ.Raw(page.Description))
		w.raw(`<ul class="table-view page-index">`)
		for _, p := range pages {
			if p.Slug == catalog.HomeSlug {
				continue
			}
			w.raw(`<li class="table-view-cell"><a`)
			w.attr("href", p.Path())
			w.raw(`>`)
			w.text(p.Title)
			w.raw(`</a><p>`)
			w.text(p.Summary)
			w.raw(`</p></li>`)
		}
		w.raw(`</ul></section>`)
	})
}

// DemoPage renders a component page: its description, the demo markup and
// any extra content such as the modal playground.
func DemoPage(page catalog.Page, extra templ.Component) templ.Component {
	return component(func(w *writer) {
		w.raw(`<section class="content-padded page-demo"`)
		w.attr("data-page", page.Slug)
		w.raw(`><div class="page-description">`)
		w.render(templ.Raw(page.Description))
		w.raw(`</div>`)
		if page.Demo != "" {
			w.raw(`<div class="page-sample">`)
			w.render(templ.Raw(page.Demo))
			w.raw(`</div>`)
		}
		w.render(extra)
		w.raw(`</section>`)
	})
}

// IconsPage lists the icon names.
func IconsPage(page catalog.Page, list []icons.Icon) templ.Component {
	return component(func(w *writer) {
		w.raw(`<section class="content-padded page-icons"><div class="page-description">`)
		w.render(templ.Raw(page.Description))
		w.raw(`</div><ul class="icon-grid">`)
		for _, icon := range list {
			w.raw(`<li class="icon-item"`)
			w.attr("data-icon", icon.Name)
			w.raw(`><span class="icon-name">`)
			w.text(icon.Name)
			w.raw(`</span></li>`)
		}
		w.raw(`</ul>`)
		if len(list) == 0 {
			w.raw(`<p class="empty">No icons found.</p>`)
		}
		w.raw(`</section>`)
	})
}

// SVGsPage previews every icon file served under base.
func SVGsPage(page catalog.Page, list []icons.Icon, base string) templ.Component {
	return component(func(w *writer) {
		w.raw(`<section class="content-padded page-svgs"><div class="page-description">`)
		w.render(templ.Raw(page.Description))
		w.raw(`</div><ul class="icon-grid">`)
		for _, icon := range list {
			w.raw(`<li class="icon-item"><img`)
			w.attr("src", path.Join(base, url.PathEscape(icon.File)))
			w.attr("alt", icon.Label)
			w.attr("title", icon.Name)
			w.raw(`><span class="icon-name">`)
			w.text(icon.Label)
			w.raw(`</span></li>`)
		}
		w.raw(`</ul></section>`)
	})
}

// ErrorPage renders a short message for failed page requests.
func ErrorPage(status int, message string) templ.Component {
	return component(func(w *writer) {
		w.rawf(`<section class="content-padded page-error" data-status="%d"><h2>`, status)
		w.text(message)
		w.raw(`</h2><p><a href="/">REBASE</a></p></section>`)
	})
}
