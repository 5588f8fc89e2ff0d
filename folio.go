// Package folio is a portfolio blog server built with Go, Echo, and templ.
// It pulls posts from a headless content store, normalizes them, and serves
// them with in-app navigation driven by htmx.
//
// Pages are rendered through the ViewFuncs struct, so a site can swap any
// template while folio keeps the handler logic, middleware, and storage.
package folio

import (
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/prefs"
	"github.com/eringen/folio/views"
)

// ViewFuncs holds the components folio calls when rendering pages. Page
// components render the fragment swapped into #main; Layout wraps a fragment
// into a full document for non-htmx requests.
type ViewFuncs struct {
	Layout      func(site views.SiteConfig, meta views.PageMeta, body templ.Component) templ.Component
	Home        func(p views.HomePage) templ.Component
	BlogList    func(p views.ListPage) templ.Component
	Post        func(p views.PostPage) templ.Component
	Search      func(p views.SearchPage) templ.Component
	Studio      func(p views.StudioPage) templ.Component
	LikeButton  func(s views.LikeState) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// DefaultViews are the components shipped in the views package.
var DefaultViews = ViewFuncs{
	Layout:      views.Layout,
	Home:        views.Home,
	BlogList:    views.BlogList,
	Post:        views.Post,
	Search:      views.Search,
	Studio:      views.Studio,
	LikeButton:  views.LikeButton,
	NotFound:    views.NotFound,
	ServerError: views.ServerError,
}

// App is the central folio application. It wires together the content
// pipeline, caches, preferences, handlers, and middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Repo   *content.Repository
	Cache  *PostCache
	Prefs  *prefs.Store
	Views  ViewFuncs

	limiter      *RateLimiter
	source       content.Source
	sourceSet    bool
	closers      []io.Closer
	customRoutes []func(*App)
	staticDir    string
}

// New creates a folio App with the given configuration and view functions.
// Zero fields of views fall back to DefaultViews.
func New(cfg SiteConfig, v ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     v.withDefaults(),
		staticDir: "public",
	}
	a.Echo.HideBanner = true
	a.Echo.Logger.SetLevel(log.INFO)

	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (v ViewFuncs) withDefaults() ViewFuncs {
	d := DefaultViews
	if v.Layout == nil {
		v.Layout = d.Layout
	}
	if v.Home == nil {
		v.Home = d.Home
	}
	if v.BlogList == nil {
		v.BlogList = d.BlogList
	}
	if v.Post == nil {
		v.Post = d.Post
	}
	if v.Search == nil {
		v.Search = d.Search
	}
	if v.Studio == nil {
		v.Studio = d.Studio
	}
	if v.LikeButton == nil {
		v.LikeButton = d.LikeButton
	}
	if v.NotFound == nil {
		v.NotFound = d.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = d.ServerError
	}
	return v
}

// NewRepository builds the content pipeline selected by cfg. The returned
// closer, when non-nil, releases the underlying source.
func NewRepository(cfg SiteConfig, logger echo.Logger) (*content.Repository, io.Closer, error) {
	src, closer, err := openSource(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return newRepository(cfg, src, logger), closer, nil
}

func newRepository(cfg SiteConfig, src content.Source, logger echo.Logger) *content.Repository {
	normalizer := content.NewNormalizer(cfg.Sanity.Assets(), logger, content.NormalizerConfig{
		WordsPerMinute: cfg.WordsPerMinute,
	})
	return content.NewRepository(src, normalizer, logger)
}

func openSource(cfg SiteConfig, logger echo.Logger) (content.Source, io.Closer, error) {
	switch cfg.ContentSource {
	case SourceSanity:
		if !cfg.Sanity.Configured() {
			logger.Warnj(log.JSON{"msg": "sanity project id not set, serving fallback corpus", "class": "configuration"})
			return nil, nil, nil
		}
		return content.NewSanityClient(cfg.Sanity, &http.Client{Timeout: cfg.Sanity.Timeout + time.Second}), nil, nil
	case SourceSQLite:
		s, err := content.NewSQLiteSource(cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("folio: open document store: %w", err)
		}
		return s, s, nil
	default:
		return nil, nil, nil
	}
}

// Init builds the content pipeline, preference store, middleware, and
// routes. Start calls it; tests call it directly and drive a.Echo.
func (a *App) Init() error {
	logger := a.Echo.Logger

	src := a.source
	if !a.sourceSet {
		s, closer, err := openSource(a.Config, logger)
		if err != nil {
			return err
		}
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
		src = s
	}
	a.Repo = newRepository(a.Config, src, logger)
	a.Cache = NewPostCache(a.Repo, a.Config.PostCacheTTL)

	store, err := prefs.Open(a.Config.PrefsPath, logger)
	if err != nil {
		// Preferences are best effort; a nil store remembers nothing.
		logger.Warnj(log.JSON{"msg": "preferences disabled", "error": err.Error()})
	} else {
		a.Prefs = store
		a.closers = append(a.closers, store)
	}

	a.limiter = NewRateLimiter(a.Config.RateLimit, a.Config.RateWindow)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start validates the configuration, initializes the app, and serves HTTP
// until the server is shut down.
func (a *App) Start() error {
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("folio: %w", err)
	}
	if err := a.Init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/blog/", a.handleBlogList)
	e.GET("/blog/:slug/", a.handlePost)
	e.GET("/search/", a.handleSearch)
	e.POST("/search/clear/", a.handleClearSearches)
	e.GET("/studio/", a.handleStudio)

	e.GET("/nav/:page/", a.handleNavigate)
	e.GET("/nav/:page/:slug/", a.handleNavigate)
	e.POST("/nav/back/", a.handleBack)
	e.POST("/nav/popstate/", a.handlePopState)

	e.POST("/api/posts/:id/like/", a.handleLike)
	if a.Config.RevalidateSecret != "" {
		e.POST("/api/revalidate/", a.handleRevalidate, middleware.KeyAuth(a.validRevalidateKey))
	}
}

func (a *App) validRevalidateKey(key string, _ echo.Context) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(key), []byte(a.Config.RevalidateSecret)) == 1, nil
}

// Close releases the document store, preference store, and limiter.
// Call this when the app is shutting down.
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
