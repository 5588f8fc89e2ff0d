package content

import (
	"context"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"golang.org/x/text/cases"
)

// SortBy selects the ordering of a post list.
type SortBy string

const (
	SortDate  SortBy = "date" // publishedAt descending
	SortViews SortBy = "views"
	SortLikes SortBy = "likes"
)

// ParseSortBy maps a query value to a SortBy, defaulting to SortDate.
func ParseSortBy(s string) SortBy {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case SortViews:
		return SortViews
	case SortLikes:
		return SortLikes
	default:
		return SortDate
	}
}

// Repository combines a Source, a Normalizer and the fallback corpus.
// Its methods never return errors: failures are logged and resolved to the
// fallback corpus or nil.
type Repository struct {
	source     Source
	normalizer *Normalizer
	logger     echo.Logger
}

// NewRepository returns a Repository. A nil source behaves as unconfigured.
func NewRepository(source Source, normalizer *Normalizer, logger echo.Logger) *Repository {
	return &Repository{source: source, normalizer: normalizer, logger: logger}
}

// LoadAll returns every post ordered by publishedAt descending. When the
// source is unconfigured, fails, or returns nothing, the fallback corpus is
// returned instead.
func (r *Repository) LoadAll(ctx context.Context) []Post {
	if r.source == nil {
		r.logger.Infoj(log.JSON{"msg": "content source unconfigured, serving fallback corpus", "op": "load all"})
		return r.fallback()
	}
	docs, err := r.source.FetchAll(ctx)
	if err != nil {
		r.logFailure("load all", err)
		return r.fallback()
	}
	if len(docs) == 0 {
		r.logger.Warnj(log.JSON{"msg": "content source returned no posts, serving fallback corpus", "op": "load all"})
		return r.fallback()
	}
	r.logger.Debugj(log.JSON{"msg": "loaded posts from content source", "op": "load all", "count": len(docs)})
	return Sorted(r.normalizer.NormalizeAll(docs), SortDate)
}

// GetBySlug returns the post with slug, looking in the content source first
// and the fallback corpus second. It returns nil only if neither has it.
func (r *Repository) GetBySlug(ctx context.Context, slug string) *Post {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil
	}
	if r.source != nil {
		doc, err := r.source.FetchBySlug(ctx, slug)
		switch {
		case err != nil:
			r.logFailure("get by slug", err, "slug", slug)
		case doc != nil:
			p := r.normalizer.Normalize(*doc)
			return &p
		default:
			r.logger.Debugj(log.JSON{"msg": "slug not found in content source", "op": "get by slug", "slug": slug})
		}
	}
	for _, p := range r.fallback() {
		if p.Slug == slug {
			return &p
		}
	}
	return nil
}

// Search returns posts whose title, excerpt, tags, or content contain query,
// ignoring case. A blank query matches nothing.
func (r *Repository) Search(ctx context.Context, query string) []Post {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Post{}
	}
	fold := cases.Fold()
	needle := fold.String(query)
	contains := func(s string) bool {
		return strings.Contains(fold.String(s), needle)
	}

	results := []Post{}
	for _, p := range r.LoadAll(ctx) {
		if contains(p.Title) || contains(p.Excerpt) || contains(p.Content) {
			results = append(results, p)
			continue
		}
		for _, t := range p.Tags {
			if contains(t) {
				results = append(results, p)
				break
			}
		}
	}
	return results
}

// ByCategory returns the posts in category id.
func (r *Repository) ByCategory(ctx context.Context, id string) []Post {
	id = strings.ToLower(strings.TrimSpace(id))
	out := []Post{}
	for _, p := range r.LoadAll(ctx) {
		if p.Category == id {
			out = append(out, p)
		}
	}
	return out
}

// Featured returns the posts marked featured.
func (r *Repository) Featured(ctx context.Context) []Post {
	out := []Post{}
	for _, p := range r.LoadAll(ctx) {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}

// Sorted returns a copy of posts in the requested order. The sort is
// stable, so ties keep their source order.
func Sorted(posts []Post, by SortBy) []Post {
	out := make([]Post, len(posts))
	copy(out, posts)
	var less func(a, b Post) bool
	switch by {
	case SortViews:
		less = func(a, b Post) bool { return a.Views > b.Views }
	case SortLikes:
		less = func(a, b Post) bool { return a.Likes > b.Likes }
	default:
		less = func(a, b Post) bool { return a.PublishedAt > b.PublishedAt }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (r *Repository) fallback() []Post {
	return Sorted(r.normalizer.NormalizeAll(fallbackDocuments()), SortDate)
}

func (r *Repository) logFailure(op string, err error, kv ...string) {
	rec := log.JSON{
		"msg":   "content source failed, using fallback",
		"op":    op,
		"class": errorClass(err),
		"error": err.Error(),
	}
	for i := 0; i+1 < len(kv); i += 2 {
		rec[kv[i]] = kv[i+1]
	}
	if errorClass(err) == "configuration" {
		r.logger.Infoj(rec)
		return
	}
	r.logger.Warnj(rec)
}
