package views

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/router"
)

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// FilterRelatedPosts returns posts that share a tag or the category with
// current, tag matches first.
func FilterRelatedPosts(current content.Post, posts []content.Post) []content.Post {
	tagSet := make(map[string]struct{})
	for _, t := range current.Tags {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag != "" {
			tagSet[tag] = struct{}{}
		}
	}
	var byTag, byCategory []content.Post
	for _, p := range posts {
		if p.Slug == current.Slug {
			continue
		}
		matched := false
		for _, t := range p.Tags {
			tag := strings.ToLower(strings.TrimSpace(t))
			if _, ok := tagSet[tag]; ok {
				matched = true
				break
			}
		}
		switch {
		case matched:
			byTag = append(byTag, p)
		case p.Category == current.Category:
			byCategory = append(byCategory, p)
		}
	}
	return append(byTag, byCategory...)
}

// PathEscape wraps url.PathEscape for use in templ expressions.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// NavPath returns the htmx navigation endpoint for e.
func NavPath(e router.Entry) string {
	if e.Page == router.PageBlogPost && e.Slug != "" {
		return "/nav/" + string(e.Page) + "/" + url.PathEscape(e.Slug) + "/"
	}
	return "/nav/" + string(e.Page) + "/"
}

// TagClass returns CSS classes for a tag pill, with active variant.
func TagClass(active bool) string {
	base := "inline-flex items-center rounded border border-ink dark:border-white/30 bg-stone-100 dark:bg-neutral-700 px-2.5 py-1 text-[11px] font-semibold uppercase tracking-[0.12em] hover:-translate-y-0.5 hover:shadow-sm transition"
	if active {
		base += " bg-ink dark:bg-white text-white dark:text-ink"
	}
	return base
}

var categoryLabels = map[string]string{
	content.CategoryTech:     "Tech",
	content.CategoryDesign:   "Design",
	content.CategoryTutorial: "Tutorial",
	content.CategoryCareer:   "Career",
	content.CategoryPersonal: "Personal",
}

// CategoryLabel returns the display name of a category id.
func CategoryLabel(id string) string {
	if l, ok := categoryLabels[id]; ok {
		return l
	}
	return id
}

// ReadingTimeLabel formats minutes as "N min read".
func ReadingTimeLabel(minutes int) string {
	return strconv.Itoa(minutes) + " min read"
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      buildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg SiteConfig, post content.Post) string {
	postURL := buildURL(cfg.URL, "blog", post.Slug)
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Excerpt,
		"datePublished": post.PublishedAt,
		"url":           postURL,
		"timeRequired":  "PT" + strconv.Itoa(post.ReadingTime) + "M",
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	if post.CoverImage != "" {
		data["image"] = post.CoverImage
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
