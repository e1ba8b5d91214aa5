package templates

import (
	"github.com/a-h/templ"

	"github.com/testudy/rebase/internal/catalog"
)

// StylesheetHref is the URL of the site stylesheet.
const StylesheetHref = "/public/static/css/rebase.css"

// LayoutData drives the page chrome.
type LayoutData struct {
	Title       string
	Site        string
	CSRFToken   string
	CSRFHeader  string
	Environment string
	Nav         []catalog.NavItem
	ActivePath  string
}

// Layout wraps body in the document shell: stylesheet, CSRF meta tag, the
// title bar and the page navigation.
func Layout(data LayoutData, body templ.Component) templ.Component {
	return component(func(w *writer) {
		w.raw(`<!DOCTYPE html><html lang="zh-CN"><head><meta charset="utf-8">`)
		w.raw(`<meta name="viewport" content="initial-scale=1, maximum-scale=1, user-scalable=no, minimal-ui">`)
		w.raw(`<meta name="apple-mobile-web-app-capable" content="yes">`)
		w.raw(`<title>`)
		w.text(data.Title)
		w.raw(`</title><meta name="csrf-token"`)
		w.attr("content", data.CSRFToken)
		w.raw(`><link rel="stylesheet"`)
		w.attr("href", StylesheetHref)
		w.raw(`><script src="https://unpkg.com/htmx.org@1.9.12" defer></script></head><body`)
		if data.CSRFHeader != "" {
			w.attr("hx-headers", `{"`+data.CSRFHeader+`": "`+data.CSRFToken+`"}`)
		}
		if data.Environment != "" {
			w.attr("data-env", data.Environment)
		}
		w.raw(`><header class="bar bar-nav"><h1 class="title">`)
		w.text(data.Site)
		w.raw(`</h1></header>`)
		w.render(Nav(data.Nav, data.ActivePath))
		w.raw(`<main class="content">`)
		w.render(body)
		w.raw(`</main></body></html>`)
	})
}

// Nav renders the page list, marking the link for active.
func Nav(items []catalog.NavItem, active string) templ.Component {
	return component(func(w *writer) {
		w.raw(`<nav class="bar bar-tab"><ul class="table-view">`)
		for _, item := range items {
			w.raw(`<li class="table-view-cell`)
			if item.Href == active {
				w.raw(` active`)
			}
			w.raw(`"><a`)
			w.attr("href", item.Href)
			if item.Href == active {
				w.attr("aria-current", "page")
			}
			w.raw(`>`)
			w.text(item.Label)
			w.raw(`</a></li>`)
		}
		w.raw(`</ul></nav>`)
	})
}
