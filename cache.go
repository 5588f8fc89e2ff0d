package folio

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eringen/folio/content"
)

// Loader is the part of content.Repository the cache reads through.
type Loader interface {
	LoadAll(ctx context.Context) []content.Post
}

// PostCache is an in-memory cache of normalized posts and tags with TTL.
// Reloads are tagged with a generation token so a slow reload finishing
// after a newer one never overwrites it.
type PostCache struct {
	mu      sync.RWMutex
	posts   []content.Post
	tags    []string
	fetched time.Time
	ttl     time.Duration
	loader  Loader
	gen     content.Generation
	now     func() time.Time
}

// NewPostCache creates a PostCache backed by loader. A ttl of zero or less
// disables caching.
func NewPostCache(loader Loader, ttl time.Duration) *PostCache {
	return &PostCache{loader: loader, ttl: ttl, now: time.Now}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && c.now().Sub(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.tags = nil
	c.mu.Unlock()
}

// Posts returns all posts, newest first, reloading if the cache is stale.
func (c *PostCache) Posts(ctx context.Context) []content.Post {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts
	}
	c.mu.RUnlock()
	return c.Refresh(ctx)
}

// Refresh loads posts unconditionally. The load runs without holding the
// lock; its result is stored only if no later refresh has started.
func (c *PostCache) Refresh(ctx context.Context) []content.Post {
	token := c.gen.Next()
	posts := c.loader.LoadAll(ctx)
	tags := collectTags(posts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.gen.Current(token) {
		if c.posts != nil {
			return c.posts
		}
		return posts
	}
	c.posts = posts
	c.tags = tags
	c.fetched = c.now()
	return posts
}

// Tags returns all unique tags, sorted.
func (c *PostCache) Tags(ctx context.Context) []string {
	c.Posts(ctx)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tags
}

// Post returns the cached post with slug.
func (c *PostCache) Post(ctx context.Context, slug string) (content.Post, bool) {
	for _, p := range c.Posts(ctx) {
		if p.Slug == slug {
			return p, true
		}
	}
	return content.Post{}, false
}

func collectTags(posts []content.Post) []string {
	seen := map[string]struct{}{}
	tags := []string{}
	for _, p := range posts {
		for _, t := range p.Tags {
			n := normalizeTag(t)
			if _, ok := seen[n]; ok || n == "" {
				continue
			}
			seen[n] = struct{}{}
			tags = append(tags, n)
		}
	}
	sort.Strings(tags)
	return tags
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
