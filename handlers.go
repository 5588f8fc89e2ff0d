package folio

import (
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/router"
	"github.com/eringen/folio/views"
)

const (
	homeRecentPosts = 6
	maxRelatedPosts = 3
)

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

func (a *App) site() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}
}

// renderPage saves the visit, then writes body alone for htmx requests or
// wrapped in the layout otherwise.
func (a *App) renderPage(c echo.Context, v *visit, code int, meta views.PageMeta, body templ.Component) error {
	v.save(c)
	if isHTMX(c) {
		return RenderStatus(c, code, body)
	}
	return RenderStatus(c, code, a.Views.Layout(a.site(), meta, body))
}

// renderEntry renders the router's current page with default filters.
func (a *App) renderEntry(c echo.Context, v *visit) error {
	e := v.router.Current()
	switch e.Page {
	case router.PageBlogList:
		return a.renderBlogList(c, v, listQuery{sort: content.SortDate})
	case router.PageBlogPost:
		return a.renderPost(c, v, e.Slug)
	case router.PageStudio:
		return a.renderStudio(c, v)
	default:
		return a.renderHome(c, v)
	}
}

func (a *App) handleHome(c echo.Context) error {
	v := a.loadVisit(c, false)
	v.record(router.Home)
	return a.renderHome(c, v)
}

func (a *App) renderHome(c echo.Context, v *visit) error {
	posts := a.Cache.Posts(c.Request().Context())
	featured := []content.Post{}
	for _, p := range posts {
		if p.Featured {
			featured = append(featured, p)
		}
	}
	recent := posts
	if len(recent) > homeRecentPosts {
		recent = recent[:homeRecentPosts]
	}
	site := a.site()
	meta := views.PageMeta{
		URL:    BuildURL(a.Config.URL),
		JSONLD: views.WebsiteJsonLD(site),
	}
	return a.renderPage(c, v, http.StatusOK, meta, a.Views.Home(views.HomePage{
		Site:     site,
		Nav:      v.nav(c),
		Featured: featured,
		Recent:   recent,
	}))
}

type listQuery struct {
	category string
	sort     content.SortBy
	tags     []string
}

func (a *App) handleBlogList(c echo.Context) error {
	v := a.loadVisit(c, false)
	v.record(router.Entry{Page: router.PageBlogList})
	q := listQuery{
		category: strings.ToLower(strings.TrimSpace(c.QueryParam("category"))),
		sort:     content.ParseSortBy(c.QueryParam("sort")),
		tags:     FilterEmpty(strings.Split(c.QueryParam("tag"), ",")),
	}
	if !content.ValidCategory(q.category) {
		q.category = ""
	}
	return a.renderBlogList(c, v, q)
}

func (a *App) renderBlogList(c echo.Context, v *visit, q listQuery) error {
	ctx := c.Request().Context()
	posts := content.Sorted(filterPosts(a.Cache.Posts(ctx), q.category, q.tags), q.sort)
	meta := views.PageMeta{
		Title: "Blog",
		URL:   BuildURL(a.Config.URL, "blog"),
	}
	return a.renderPage(c, v, http.StatusOK, meta, a.Views.BlogList(views.ListPage{
		Site:       a.site(),
		Nav:        v.nav(c),
		Posts:      posts,
		Category:   q.category,
		Categories: content.Categories(),
		Sort:       q.sort,
		Tags:       a.Cache.Tags(ctx),
	}))
}

// filterPosts keeps posts in category (any when empty) carrying at least
// one of tags (any when empty).
func filterPosts(posts []content.Post, category string, tags []string) []content.Post {
	want := map[string]struct{}{}
	for _, t := range tags {
		want[normalizeTag(t)] = struct{}{}
	}
	out := []content.Post{}
	for _, p := range posts {
		if category != "" && p.Category != category {
			continue
		}
		if len(want) > 0 && !hasAnyTag(p, want) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func hasAnyTag(p content.Post, want map[string]struct{}) bool {
	for _, t := range p.Tags {
		if _, ok := want[normalizeTag(t)]; ok {
			return true
		}
	}
	return false
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	v := a.loadVisit(c, false)
	v.record(router.Entry{Page: router.PageBlogPost, Slug: slug})
	return a.renderPost(c, v, slug)
}

func (a *App) renderPost(c echo.Context, v *visit, slug string) error {
	ctx := c.Request().Context()
	post, ok := a.Cache.Post(ctx, slug)
	if !ok {
		// The cache holds one page of posts; older ones are fetched directly.
		p := a.Repo.GetBySlug(ctx, slug)
		if p == nil {
			return a.renderPage(c, v, http.StatusNotFound, views.PageMeta{Title: "Not found"}, a.Views.NotFound())
		}
		post = *p
	}
	related := views.FilterRelatedPosts(post, a.Cache.Posts(ctx))
	if len(related) > maxRelatedPosts {
		related = related[:maxRelatedPosts]
	}
	site := a.site()
	meta := views.PageMeta{
		Title:       post.Title,
		Description: post.Excerpt,
		URL:         BuildURL(a.Config.URL, "blog", post.Slug),
		OGType:      "article",
		JSONLD:      views.BlogPostingJsonLD(site, post),
	}
	return a.renderPage(c, v, http.StatusOK, meta, a.Views.Post(views.PostPage{
		Site:    site,
		Nav:     v.nav(c),
		Post:    post,
		Related: related,
		Like:    a.likeState(c, v.visitor, post),
	}))
}

func (a *App) handleStudio(c echo.Context) error {
	v := a.loadVisit(c, false)
	v.record(router.Entry{Page: router.PageStudio})
	return a.renderStudio(c, v)
}

func (a *App) renderStudio(c echo.Context, v *visit) error {
	page := views.StudioPage{
		Site:   a.site(),
		Nav:    v.nav(c),
		Source: a.Config.ContentSource,
	}
	if a.Config.ContentSource == SourceSanity && a.Config.Sanity.Configured() {
		page.ProjectID = a.Config.Sanity.ProjectID
		page.Dataset = a.Config.Sanity.Dataset
	}
	meta := views.PageMeta{Title: "Studio", URL: BuildURL(a.Config.URL, "studio")}
	return a.renderPage(c, v, http.StatusOK, meta, a.Views.Studio(page))
}

func (a *App) handleSearch(c echo.Context) error {
	ctx := c.Request().Context()
	v := a.loadVisit(c, false)
	q := strings.TrimSpace(c.QueryParam("q"))
	results := []content.Post{}
	if q != "" {
		if !a.limiter.Allow("search:" + c.RealIP()) {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many searches, slow down")
		}
		results = a.Repo.Search(ctx, q)
		a.Prefs.AddRecentSearch(v.visitor, q)
	}
	meta := views.PageMeta{Title: "Search", URL: BuildURL(a.Config.URL, "search")}
	return a.renderPage(c, v, http.StatusOK, meta, a.Views.Search(views.SearchPage{
		Site:    a.site(),
		Nav:     v.nav(c),
		Query:   q,
		Results: results,
		Recent:  a.Prefs.RecentSearches(v.visitor),
	}))
}

func (a *App) handleClearSearches(c echo.Context) error {
	v := a.loadVisit(c, false)
	a.Prefs.ClearRecentSearches(v.visitor)
	meta := views.PageMeta{Title: "Search", URL: BuildURL(a.Config.URL, "search")}
	return a.renderPage(c, v, http.StatusOK, meta, a.Views.Search(views.SearchPage{
		Site:    a.site(),
		Nav:     v.nav(c),
		Results: []content.Post{},
		Recent:  a.Prefs.RecentSearches(v.visitor),
	}))
}

// handleRevalidate drops the post cache so the next read reloads from the
// content source. Content stores call it after publishing.
func (a *App) handleRevalidate(c echo.Context) error {
	a.Cache.Invalidate()
	c.Logger().Infoj(log.JSON{"msg": "post cache invalidated", "remote": c.RealIP()})
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleNavigate(c echo.Context) error {
	v := a.loadVisit(c, true)
	v.router.NavigateTo(router.Page(c.Param("page")), c.Param("slug"))
	return a.renderEntry(c, v)
}

func (a *App) handleBack(c echo.Context) error {
	v := a.loadVisit(c, true)
	v.router.GoBack()
	return a.renderEntry(c, v)
}

func (a *App) handlePopState(c echo.Context) error {
	v := a.loadVisit(c, true)
	var state router.Entry
	if err := c.Bind(&state); err != nil {
		c.Logger().Debugj(log.JSON{"msg": "popstate body unreadable", "error": err.Error()})
		state = router.Entry{}
	}
	v.port.Dispatch(state)
	return a.renderEntry(c, v)
}

func (a *App) handleLike(c echo.Context) error {
	if !a.limiter.Allow("like:" + c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many likes, slow down")
	}
	id := c.Param("id")
	var post *content.Post
	for _, p := range a.Cache.Posts(c.Request().Context()) {
		if p.ID == id {
			post = &p
			break
		}
	}
	if post == nil {
		return echo.ErrNotFound
	}
	v := a.loadVisit(c, false)
	a.Prefs.ToggleLike(v.visitor, id)
	state := a.likeState(c, v.visitor, *post)
	v.save(c)
	return Render(c, a.Views.LikeButton(state))
}

func (a *App) likeState(c echo.Context, visitor string, p content.Post) views.LikeState {
	return views.LikeState{
		PostID: p.ID,
		Liked:  a.Prefs.Liked(visitor, p.ID),
		Count:  p.Likes + a.Prefs.LikeCount(p.ID),
		CSRF:   CsrfToken(c),
	}
}

func (a *App) handleSitemap(c echo.Context) error {
	return a.renderSitemap(c, a.Cache.Posts(c.Request().Context()))
}

func (a *App) handleFeed(c echo.Context) error {
	return a.renderRSS(c, a.Cache.Posts(c.Request().Context()))
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = a.renderPage(c, nil, http.StatusNotFound, views.PageMeta{Title: "Not found"}, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorj(log.JSON{"msg": "server error", "uri": c.Request().RequestURI, "error": err.Error()})
		_ = a.renderPage(c, nil, code, views.PageMeta{Title: "Error"}, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
