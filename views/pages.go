package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/markdown"
	"github.com/eringen/folio/router"
)

// MainID is the element page fragments are swapped into.
const MainID = "main"

type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) attr(name, value string) {
	w.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (w *writer) component(ctx context.Context, c templ.Component) {
	if w.err == nil {
		w.err = c.Render(ctx, w.w)
	}
}

func page(fn func(ctx context.Context, w *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		fn(ctx, w)
		return w.err
	})
}

// Layout wraps body in the full HTML document.
func Layout(site SiteConfig, meta PageMeta, body templ.Component) templ.Component {
	return page(func(ctx context.Context, w *writer) {
		title := site.Name
		if meta.Title != "" {
			title = meta.Title + " | " + site.Name
		}
		desc := meta.Description
		if desc == "" {
			desc = site.Description
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}
		w.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8"/>`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1"/>`)
		w.raw("<title>")
		w.text(title)
		w.raw("</title><meta name=\"description\"")
		w.attr("content", desc)
		w.raw("/>")
		if meta.URL != "" {
			w.raw(`<link rel="canonical"`)
			w.attr("href", meta.URL)
			w.raw(`/><meta property="og:url"`)
			w.attr("content", meta.URL)
			w.raw("/>")
		}
		w.raw(`<meta property="og:title"`)
		w.attr("content", title)
		w.raw(`/><meta property="og:type"`)
		w.attr("content", ogType)
		w.raw(`/><link rel="alternate" type="application/rss+xml" href="/feed.xml"/>`)
		w.raw(`<link rel="stylesheet" href="/public/styles.css"/>`)
		w.raw(`<script src="/public/htmx.min.js" defer></script>`)
		if meta.JSONLD != "" {
			w.raw(`<script type="application/ld+json">` + meta.JSONLD + `</script>`)
		}
		w.raw(`</head><body hx-target="#` + MainID + `" hx-swap="innerHTML">`)
		w.raw(`<header class="site-header"><a href="/"`)
		w.attr("hx-get", NavPath(router.Home))
		w.raw(">")
		w.text(site.Name)
		w.raw(`</a><nav>`)
		navLink(w, router.Entry{Page: router.PageBlogList}, "Blog")
		navLink(w, router.Entry{Page: router.PageStudio}, "Studio")
		w.raw(`<form action="/search/" method="get" hx-get="/search/" hx-push-url="true"><input type="search" name="q" placeholder="Search posts"/></form>`)
		w.raw(`</nav></header><main id="` + MainID + `">`)
		w.component(ctx, body)
		w.raw(`</main>`)
		w.raw(popstateScript)
		w.raw(`</body></html>`)
	})
}

// popstateScript forwards browser back/forward to the server-side router
// and restores the page named by the hash on a fresh load.
const popstateScript = `<script>
function folioState() {
  var h = location.hash.replace(/^#/, "").split("/");
  var state = {page: h[0] || "home"};
  if (h[1]) { state.slug = decodeURIComponent(h[1]); }
  return state;
}
window.addEventListener("popstate", function () {
  fetch("/nav/popstate/", {method: "POST", headers: {"Content-Type": "application/json", "HX-Request": "true"}, body: JSON.stringify(folioState())})
    .then(function (r) { return r.text(); })
    .then(function (html) { document.getElementById("main").innerHTML = html; });
});
document.addEventListener("DOMContentLoaded", function () {
  if (location.hash.length < 2) { return; }
  var s = folioState();
  var path = "/nav/" + encodeURIComponent(s.page) + "/" + (s.slug ? encodeURIComponent(s.slug) + "/" : "");
  htmx.ajax("GET", path, "#main");
});
</script>`

func navLink(w *writer, e router.Entry, label string) {
	w.raw("<a")
	w.attr("href", e.URL())
	w.attr("hx-get", NavPath(e))
	w.raw(">")
	w.text(label)
	w.raw("</a>")
}

func csrfHeaders(w *writer, token string) {
	if token != "" {
		w.attr("hx-headers", `{"X-CSRF-Token": "`+token+`"}`)
	}
}

func backButton(w *writer, nav Nav) {
	if !nav.CanGoBack {
		return
	}
	w.raw(`<button type="button" class="back" hx-post="/nav/back/"`)
	csrfHeaders(w, nav.CSRF)
	w.raw(">&larr; Back</button>")
}

func postCard(w *writer, p content.Post) {
	w.raw(`<article class="post-card">`)
	if p.CoverImage != "" {
		w.raw(`<img loading="lazy" decoding="async"`)
		w.attr("src", p.CoverImage)
		w.attr("alt", p.Title)
		w.raw("/>")
	}
	w.raw("<h3>")
	navLink(w, router.Entry{Page: router.PageBlogPost, Slug: p.Slug}, p.Title)
	w.raw(`</h3><p class="meta"><time`)
	w.attr("datetime", p.PublishedAt)
	w.raw(">")
	w.text(p.Date)
	w.raw("</time> &middot; ")
	w.text(ReadingTimeLabel(p.ReadingTime))
	w.raw(" &middot; ")
	w.text(CategoryLabel(p.Category))
	w.raw("</p>")
	if p.Excerpt != "" {
		w.raw("<p>")
		w.text(p.Excerpt)
		w.raw("</p>")
	}
	tags(w, p.Tags)
	w.raw("</article>")
}

func tags(w *writer, ts []string) {
	if len(ts) == 0 {
		return
	}
	w.raw(`<ul class="tags">`)
	for _, t := range ts {
		w.raw("<li")
		w.attr("class", TagClass(false))
		w.raw(">")
		w.text(t)
		w.raw("</li>")
	}
	w.raw("</ul>")
}

func postList(w *writer, posts []content.Post, empty string) {
	if len(posts) == 0 {
		w.raw(`<p class="empty">`)
		w.text(empty)
		w.raw("</p>")
		return
	}
	w.raw(`<div class="post-list">`)
	for _, p := range posts {
		postCard(w, p)
	}
	w.raw("</div>")
}

// Home renders the landing page fragment.
func Home(p HomePage) templ.Component {
	return page(func(ctx context.Context, w *writer) {
		backButton(w, p.Nav)
		w.raw(`<section class="intro"><h1>`)
		w.text(p.Site.Name)
		w.raw("</h1>")
		if p.Site.Description != "" {
			w.raw("<p>")
			w.text(p.Site.Description)
			w.raw("</p>")
		}
		w.raw("</section>")
		if len(p.Featured) > 0 {
			w.raw(`<section class="featured"><h2>Featured</h2>`)
			postList(w, p.Featured, "")
			w.raw("</section>")
		}
		w.raw(`<section class="recent"><h2>Recent posts</h2>`)
		postList(w, p.Recent, "No posts yet.")
		w.raw("</section>")
	})
}

// BlogList renders the post list with category, tag, and sort controls.
func BlogList(p ListPage) templ.Component {
	return page(func(ctx context.Context, w *writer) {
		backButton(w, p.Nav)
		w.raw(`<h1>Blog</h1><nav class="categories">`)
		listLink(w, "", p.Sort, "All", p.Category == "")
		for _, c := range p.Categories {
			listLink(w, c, p.Sort, CategoryLabel(c), c == p.Category)
		}
		w.raw(`</nav><nav class="sort">`)
		for _, s := range []content.SortBy{content.SortDate, content.SortViews, content.SortLikes} {
			listLink(w, p.Category, s, string(s), s == p.Sort)
		}
		w.raw("</nav>")
		if len(p.Tags) > 0 {
			w.raw(`<nav class="tag-cloud">`)
			for _, t := range p.Tags {
				href := "/blog/?tag=" + PathEscape(t)
				w.raw("<a")
				w.attr("href", href)
				w.attr("hx-get", href)
				w.attr("class", TagClass(false))
				w.raw(">")
				w.text(t)
				w.raw("</a>")
			}
			w.raw("</nav>")
		}
		postList(w, p.Posts, "No posts in this category.")
	})
}

func listLink(w *writer, category string, sort content.SortBy, label string, active bool) {
	href := "/blog/?sort=" + string(sort)
	if category != "" {
		href += "&category=" + PathEscape(category)
	}
	w.raw("<a")
	w.attr("href", href)
	w.attr("hx-get", href)
	w.attr("class", TagClass(active))
	if active {
		w.raw(` aria-current="true"`)
	}
	w.raw(">")
	w.text(label)
	w.raw("</a>")
}

// Post renders a single post.
func Post(p PostPage) templ.Component {
	return page(func(ctx context.Context, w *writer) {
		post := p.Post
		backButton(w, p.Nav)
		w.raw(`<article class="post"><header><h1>`)
		w.text(post.Title)
		w.raw(`</h1><p class="meta"><time`)
		w.attr("datetime", post.PublishedAt)
		w.raw(">")
		w.text(post.Date)
		w.raw("</time> &middot; ")
		w.text(ReadingTimeLabel(post.ReadingTime))
		w.raw(" &middot; ")
		w.text(CategoryLabel(post.Category))
		w.raw("</p>")
		tags(w, post.Tags)
		w.raw("</header>")
		if post.CoverImage != "" {
			w.raw(`<img fetchpriority="high" decoding="async"`)
			w.attr("src", post.CoverImage)
			w.attr("alt", post.Title)
			w.raw("/>")
		}
		w.raw(`<div class="prose">`)
		w.component(ctx, markdown.Markdown(post.Content))
		w.raw("</div>")
		w.component(ctx, LikeButton(p.Like))
		w.raw("</article>")
		if len(p.Related) > 0 {
			w.raw(`<aside class="related"><h2>Related posts</h2>`)
			postList(w, p.Related, "")
			w.raw("</aside>")
		}
	})
}

// LikeButton renders the like toggle. It swaps itself on click.
func LikeButton(s LikeState) templ.Component {
	return page(func(ctx context.Context, w *writer) {
		label := "Like"
		if s.Liked {
			label = "Unlike"
		}
		w.raw(`<button type="button" class="like" hx-target="this" hx-swap="outerHTML"`)
		w.attr("hx-post", "/api/posts/"+PathEscape(s.PostID)+"/like/")
		w.attr("aria-pressed", strconv.FormatBool(s.Liked))
		csrfHeaders(w, s.CSRF)
		w.raw(">")
		w.text(label)
		w.raw(` <span class="count">`)
		w.text(strconv.Itoa(s.Count))
		w.raw("</span></button>")
	})
}

// Search renders search results and the visitor's recent searches.
func Search(p SearchPage) templ.Component {
	return page(func(ctx context.Context, w *writer) {
		backButton(w, p.Nav)
		w.raw(`<h1>Search</h1><form action="/search/" method="get" hx-get="/search/" hx-push-url="true"><input type="search" name="q"`)
		w.attr("value", p.Query)
		w.raw(`/></form>`)
		if len(p.Recent) > 0 {
			w.raw(`<ul class="recent-searches">`)
			for _, q := range p.Recent {
				href := "/search/?q=" + PathEscape(q)
				w.raw("<li><a")
				w.attr("href", href)
				w.attr("hx-get", href)
				w.raw(">")
				w.text(q)
				w.raw("</a></li>")
			}
			w.raw(`</ul><button type="button" class="clear-searches" hx-post="/search/clear/"`)
			csrfHeaders(w, p.Nav.CSRF)
			w.raw(">Clear recent searches</button>")
		}
		if p.Query == "" {
			return
		}
		w.raw(`<p class="summary">`)
		w.text(strconv.Itoa(len(p.Results)) + ` results for "` + p.Query + `"`)
		w.raw("</p>")
		postList(w, p.Results, "Nothing matched your search.")
	})
}

// Studio renders the content studio landing page.
func Studio(p StudioPage) templ.Component {
	return page(func(ctx context.Context, w *writer) {
		backButton(w, p.Nav)
		w.raw(`<h1>Studio</h1><dl class="studio">`)
		w.raw("<dt>Content source</dt><dd>")
		w.text(p.Source)
		w.raw("</dd>")
		if p.ProjectID == "" {
			w.raw("</dl><p>No content store is configured; the built-in posts are shown.</p>")
			return
		}
		w.raw("<dt>Project</dt><dd>")
		w.text(p.ProjectID)
		w.raw("</dd><dt>Dataset</dt><dd>")
		w.text(p.Dataset)
		w.raw("</dd></dl><p><a")
		w.attr("href", "https://"+PathEscape(p.ProjectID)+".sanity.studio/")
		w.raw(` target="_blank" rel="noopener noreferrer">Open Sanity Studio</a></p>`)
	})
}

// NotFound renders the 404 page body.
func NotFound() templ.Component {
	return page(func(ctx context.Context, w *writer) {
		w.raw(`<section class="error"><h1>Not found</h1><p>The page you were looking for does not exist.</p><a href="/">Back home</a></section>`)
	})
}

// ServerError renders the 5xx page body with a retry link.
func ServerError() templ.Component {
	return page(func(ctx context.Context, w *writer) {
		w.raw(`<section class="error"><h1>Failed to load</h1><p>Something went wrong on our side.</p><a href="" hx-get="" hx-target="body">Try again</a></section>`)
	})
}
