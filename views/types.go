package views

import (
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/router"
)

// SiteConfig holds site-wide settings. Every handler passes this to
// templates so nothing is hardcoded.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	JSONLD      string
}

// Nav is the router state a page was rendered for.
type Nav struct {
	Current   router.Entry
	CanGoBack bool
	CSRF      string
}

type HomePage struct {
	Site     SiteConfig
	Nav      Nav
	Featured []content.Post
	Recent   []content.Post
}

type ListPage struct {
	Site       SiteConfig
	Nav        Nav
	Posts      []content.Post
	Category   string
	Categories []string
	Sort       content.SortBy
	Tags       []string
}

type PostPage struct {
	Site    SiteConfig
	Nav     Nav
	Post    content.Post
	Related []content.Post
	Like    LikeState
}

// LikeState is the like button of one post for one visitor.
type LikeState struct {
	PostID string
	Liked  bool
	Count  int
	CSRF   string
}

type SearchPage struct {
	Site    SiteConfig
	Nav     Nav
	Query   string
	Results []content.Post
	Recent  []string
}

type StudioPage struct {
	Site      SiteConfig
	Nav       Nav
	ProjectID string
	Dataset   string
	Source    string
}
