// Package router is the navigation state machine behind the site's
// client-side page switching. Browser history writes go through a
// HistoryPort so the machine runs the same in tests and behind HTMX.
package router

import (
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// Page is a route identifier.
type Page string

const (
	PageHome     Page = "home"
	PageBlogList Page = "blog-list"
	PageBlogPost Page = "blog-post"
	PageStudio   Page = "studio"
)

// Pages lists every valid route.
var Pages = []Page{PageHome, PageBlogList, PageBlogPost, PageStudio}

// Valid reports whether p is a known route.
func (p Page) Valid() bool {
	switch p {
	case PageHome, PageBlogList, PageBlogPost, PageStudio:
		return true
	}
	return false
}

// Entry is one navigation state. Slug is only kept for PageBlogPost.
type Entry struct {
	Page Page   `json:"page"`
	Slug string `json:"slug,omitempty"`
}

// Home is the initial entry.
var Home = Entry{Page: PageHome}

func (e Entry) normalized() Entry {
	if e.Page != PageBlogPost {
		e.Slug = ""
	}
	return e
}

func (e Entry) valid() bool {
	if !e.Page.Valid() {
		return false
	}
	return e.Page != PageBlogPost || e.Slug != ""
}

// URL returns the address recorded for e: "/" for home, "/#page/slug" with a
// slug, "/#page" without.
func (e Entry) URL() string {
	e = e.normalized()
	switch {
	case e.Page == PageHome:
		return "/"
	case e.Slug != "":
		return "/#" + string(e.Page) + "/" + url.PathEscape(e.Slug)
	default:
		return "/#" + string(e.Page)
	}
}

// ParseURL reverses URL. It reports false for addresses URL never builds.
func ParseURL(raw string) (Entry, bool) {
	if raw == "/" || raw == "" {
		return Home, true
	}
	frag, ok := strings.CutPrefix(raw, "/#")
	if !ok {
		return Entry{}, false
	}
	page, slug, _ := strings.Cut(frag, "/")
	if s, err := url.PathUnescape(slug); err == nil {
		slug = s
	}
	e := Entry{Page: Page(page), Slug: slug}.normalized()
	return e, e.valid()
}

// HistoryPort is the browser history the router writes to.
type HistoryPort interface {
	Push(state Entry, url string)
	Replace(state Entry, url string)
	OnPopState(handler func(state Entry))
}

// Scroller is implemented by ports that can reset the viewport.
type Scroller interface {
	ScrollTop()
}

// State is the serializable part of a Router.
type State struct {
	Current Entry   `json:"current"`
	History []Entry `json:"history"`
}

// Router tracks the current page and an in-app back stack. It is not safe
// for concurrent use; the server builds one per request from the session.
type Router struct {
	current Entry
	history []Entry
	port    HistoryPort
	logger  echo.Logger
}

// New returns a Router at the home page and subscribes it to port's
// popstate events.
func New(port HistoryPort, logger echo.Logger) *Router {
	r := &Router{
		current: Home,
		history: []Entry{Home},
		port:    port,
		logger:  logger,
	}
	port.OnPopState(r.PopState)
	return r
}

// Current returns the current entry.
func (r *Router) Current() Entry { return r.current }

// CurrentPage returns the current page.
func (r *Router) CurrentPage() Page { return r.current.Page }

// CurrentSlug returns the current slug, which is empty unless the current
// page is PageBlogPost.
func (r *Router) CurrentSlug() string { return r.current.normalized().Slug }

// History returns a copy of the back stack.
func (r *Router) History() []Entry {
	out := make([]Entry, len(r.history))
	copy(out, r.history)
	return out
}

// NavigateTo moves to page. An unknown page, or PageBlogPost without a
// slug, is coerced to home.
func (r *Router) NavigateTo(page Page, slug string) {
	next := Entry{Page: page, Slug: strings.TrimSpace(slug)}.normalized()
	if !next.valid() {
		r.logger.Warnj(log.JSON{"msg": "router: invalid navigation, going home", "page": string(page), "slug": slug})
		next = Home
	}
	if n := len(r.history); n == 0 || r.history[n-1] != r.current {
		r.history = append(r.history, r.current)
	}
	r.port.Push(next, next.URL())
	r.current = next
	r.scrollTop()
}

// GoBack returns to the previous entry. With nothing valid to return to,
// the router resets to home with a fresh stack.
func (r *Router) GoBack() {
	n := len(r.history)
	if n == 0 {
		r.reset()
		return
	}
	prev := r.history[n-1]
	r.history = r.history[:n-1]
	if !prev.valid() {
		r.logger.Warnj(log.JSON{"msg": "router: invalid history entry, resetting", "page": string(prev.Page)})
		r.reset()
		return
	}
	prev = prev.normalized()
	r.port.Replace(prev, prev.URL())
	r.current = prev
}

// PopState adopts a state delivered by the browser. The back stack is left
// alone.
func (r *Router) PopState(state Entry) {
	state = state.normalized()
	if !state.valid() {
		r.logger.Warnj(log.JSON{"msg": "router: invalid popstate, going home", "page": string(state.Page)})
		state = Home
	}
	r.current = state
}

// Snapshot returns the router's state for persistence.
func (r *Router) Snapshot() State {
	return State{Current: r.current, History: r.History()}
}

// Restore replaces the router's state with s. Invalid entries are dropped
// and an invalid current entry becomes home.
func (r *Router) Restore(s State) {
	r.current = s.Current.normalized()
	if !r.current.valid() {
		r.current = Home
	}
	r.history = r.history[:0]
	for _, e := range s.History {
		if e = e.normalized(); e.valid() {
			r.history = append(r.history, e)
		}
	}
	if len(r.history) == 0 {
		r.history = append(r.history, Home)
	}
}

func (r *Router) reset() {
	r.history = []Entry{Home}
	r.port.Replace(Home, Home.URL())
	r.current = Home
}

func (r *Router) scrollTop() {
	if s, ok := r.port.(Scroller); ok {
		s.ScrollTop()
	}
}
