package views

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/router"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

var site = SiteConfig{Name: "Test Blog", URL: "https://example.com", Description: "Notes", Author: "Ada"}

func TestLayoutWrapsBody(t *testing.T) {
	body := templ.Raw("<p>inner</p>")
	got := render(t, Layout(site, PageMeta{Title: "Post <1>", URL: "https://example.com/blog/x/"}, body))

	for _, want := range []string{
		"<!doctype html>",
		"<title>Post &lt;1&gt; | Test Blog</title>",
		`<link rel="canonical" href="https://example.com/blog/x/"/>`,
		`<main id="main"><p>inner</p></main>`,
		`/nav/popstate/`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Layout missing %q", want)
		}
	}
}

func TestPostEscapesAndRendersContent(t *testing.T) {
	post := content.Post{
		ID:          "p1",
		Title:       "<script>alert(1)</script>",
		Slug:        "p1",
		Content:     "## Heading\nSome **bold** text.",
		Date:        "2024-01-02",
		ReadingTime: 3,
		Category:    content.CategoryDesign,
	}
	got := render(t, Post(PostPage{Site: site, Post: post, Like: LikeState{PostID: "p1", Count: 4}}))

	if strings.Contains(got, "<script>alert(1)</script>") {
		t.Errorf("Post rendered an unescaped title: %s", got)
	}
	for _, want := range []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"<h2>Heading</h2>",
		"<strong>bold</strong>",
		"3 min read",
		"Design",
		`<span class="count">4</span>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Post missing %q", want)
		}
	}
}

func TestLikeButton(t *testing.T) {
	got := render(t, LikeButton(LikeState{PostID: "a b", Liked: true, Count: 2, CSRF: "tok"}))
	for _, want := range []string{
		`hx-post="/api/posts/a%20b/like/"`,
		`aria-pressed="true"`,
		">Unlike ",
		"X-CSRF-Token",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("LikeButton missing %q in %s", want, got)
		}
	}
	if got := render(t, LikeButton(LikeState{PostID: "a"})); strings.Contains(got, "hx-headers") {
		t.Errorf("LikeButton without a token should not send headers: %s", got)
	}
}

func TestBackButtonOnlyWhenPossible(t *testing.T) {
	if got := render(t, Home(HomePage{Site: site})); strings.Contains(got, "/nav/back/") {
		t.Errorf("Home without history rendered a back button")
	}
	got := render(t, Home(HomePage{Site: site, Nav: Nav{CanGoBack: true}}))
	if !strings.Contains(got, `hx-post="/nav/back/"`) {
		t.Errorf("Home with history is missing the back button")
	}
}

func TestSearchSummary(t *testing.T) {
	got := render(t, Search(SearchPage{Query: `"go"`, Results: []content.Post{{Title: "Go", Slug: "go"}}, Recent: []string{"rust"}}))
	for _, want := range []string{
		`1 results for &#34;&#34;go&#34;&#34;`,
		`href="/search/?q=rust"`,
		`hx-get="/nav/blog-post/go/"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Search missing %q in %s", want, got)
		}
	}
	if got := render(t, Search(SearchPage{})); strings.Contains(got, "results for") || strings.Contains(got, "/search/clear/") {
		t.Errorf("empty search page should render neither a summary nor a clear button: %s", got)
	}
}

func TestSearchClearButton(t *testing.T) {
	got := render(t, Search(SearchPage{Nav: Nav{CSRF: "tok"}, Recent: []string{"go"}}))
	for _, want := range []string{`hx-post="/search/clear/"`, `X-CSRF-Token`, "tok"} {
		if !strings.Contains(got, want) {
			t.Errorf("Search missing %q in %s", want, got)
		}
	}
}

func TestNavPath(t *testing.T) {
	tests := []struct {
		in   router.Entry
		want string
	}{
		{router.Home, "/nav/home/"},
		{router.Entry{Page: router.PageBlogList}, "/nav/blog-list/"},
		{router.Entry{Page: router.PageBlogPost, Slug: "hello world"}, "/nav/blog-post/hello%20world/"},
		{router.Entry{Page: router.PageStudio, Slug: "ignored"}, "/nav/studio/"},
	}
	for _, tt := range tests {
		if got := NavPath(tt.in); got != tt.want {
			t.Errorf("NavPath(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilterRelatedPosts(t *testing.T) {
	current := content.Post{Slug: "cur", Category: "tech", Tags: []string{"Go"}}
	posts := []content.Post{
		{Slug: "cur", Category: "tech", Tags: []string{"go"}},
		{Slug: "same-cat", Category: "tech"},
		{Slug: "other"},
		{Slug: "tagged", Category: "design", Tags: []string{" go "}},
	}
	got := FilterRelatedPosts(current, posts)
	if len(got) != 2 || got[0].Slug != "tagged" || got[1].Slug != "same-cat" {
		t.Errorf("FilterRelatedPosts = %+v", got)
	}
}

func TestBlogPostingJsonLD(t *testing.T) {
	raw := BlogPostingJsonLD(site, content.Post{Title: "T", Slug: "t", ReadingTime: 5, Tags: []string{"a", "b"}})
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("invalid JSON-LD: %v", err)
	}
	if data["url"] != "https://example.com/blog/t/" {
		t.Errorf("url = %v", data["url"])
	}
	if data["timeRequired"] != "PT5M" {
		t.Errorf("timeRequired = %v", data["timeRequired"])
	}
	if data["keywords"] != "a, b" {
		t.Errorf("keywords = %v", data["keywords"])
	}
}
