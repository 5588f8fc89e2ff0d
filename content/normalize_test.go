package content

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := log.New("test")
	l.SetOutput(&buf)
	l.SetLevel(log.DEBUG)
	return l, &buf
}

func newTestNormalizer() (*Normalizer, *bytes.Buffer) {
	l, buf := newTestLogger()
	return NewNormalizer(testAssets, l, NormalizerConfig{Now: func() time.Time { return fixedNow }}), buf
}

func paragraph(text string) map[string]any {
	return block("normal", text)
}

func TestNormalizeFullDocument(t *testing.T) {
	n, _ := newTestNormalizer()
	post := n.Normalize(RawDocument{
		"_id":         "doc-1",
		"title":       "  Hello  ",
		"slug":        map[string]any{"current": "hello"},
		"excerpt":     "An excerpt",
		"coverImage":  map[string]any{"asset": map[string]any{"_ref": "image-cover-800x600-jpg"}},
		"category":    "Design",
		"tags":        []any{"go", " ", 42, "web "},
		"featured":    true,
		"publishedAt": "2024-06-01T10:30:00Z",
		"views":       float64(12),
		"likes":       float64(3),
		"content":     []any{block("h2", "Intro"), paragraph("one two three")},
	})

	assert.Equal(t, "doc-1", post.ID)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, "hello", post.Slug)
	assert.Equal(t, "/blog/hello", post.URL)
	assert.Equal(t, "2024-06-01", post.Date)
	assert.Equal(t, "2024-06-01T10:30:00Z", post.PublishedAt)
	assert.Equal(t, "https://cdn.sanity.io/images/abc123/production/cover-800x600.jpg", post.CoverImage)
	assert.Equal(t, []string{"go", "web"}, post.Tags)
	assert.Equal(t, CategoryDesign, post.Category)
	assert.True(t, post.Featured)
	assert.Equal(t, 1, post.ReadingTime)
	assert.Equal(t, 12, post.Views)
	assert.Equal(t, 3, post.Likes)
	assert.Equal(t, "## Intro\n\none two three", post.Content)
}

func TestNormalizeDateFallback(t *testing.T) {
	for _, raw := range []any{nil, "", "not a date", "2024-13-45", math.NaN(), true, map[string]any{}} {
		n, logs := newTestNormalizer()
		doc := RawDocument{"_id": "d", "publishedAt": raw}
		post := n.Normalize(doc)
		assert.Equal(t, FallbackDate, post.Date, "publishedAt %v", raw)
		assert.Equal(t, FallbackPublishedAt, post.PublishedAt, "publishedAt %v", raw)
		assert.Contains(t, logs.String(), "invalid publishedAt")
	}

	n, logs := newTestNormalizer()
	post := n.Normalize(RawDocument{"_id": "absent"})
	assert.Equal(t, FallbackDate, post.Date)
	assert.Contains(t, logs.String(), `"present":false`)
}

func TestNormalizeDateForms(t *testing.T) {
	tests := []struct {
		raw  any
		date string
	}{
		{"2024-02-03", "2024-02-03"},
		{"2024-02-03T04:05:06.789+02:00", "2024-02-03"},
		{"2024-02-03 23:59:59", "2024-02-03"},
		{time.Date(2023, 7, 8, 0, 0, 0, 0, time.UTC), "2023-07-08"},
		{float64(time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli()), "2022-01-02"},
		{int64(-62135596800000), "0001-01-01"},
		{1e30, FallbackDate},
		{-1e30, FallbackDate},
		{2.534e15, FallbackDate},
		{int64(-62135596800001), FallbackDate},
	}
	n, _ := newTestNormalizer()
	for _, tt := range tests {
		post := n.Normalize(RawDocument{"_id": "d", "publishedAt": tt.raw})
		assert.Equal(t, tt.date, post.Date, "publishedAt %v", tt.raw)
		_, err := time.Parse(time.RFC3339, post.PublishedAt)
		assert.NoError(t, err)
	}
}

func TestNormalizeReadingTime(t *testing.T) {
	words := func(n int) string { return strings.TrimSpace(strings.Repeat("word ", n)) }
	tests := []struct {
		words int
		want  int
	}{
		{0, 1},
		{1, 1},
		{200, 1},
		{201, 2},
		{400, 2},
		{401, 3},
	}
	n, _ := newTestNormalizer()
	for _, tt := range tests {
		content := []any{}
		if tt.words > 0 {
			content = append(content, paragraph(words(tt.words)))
		}
		post := n.Normalize(RawDocument{"_id": "d", "content": content})
		assert.Equal(t, tt.want, post.ReadingTime, "%d words", tt.words)
	}
}

func TestNormalizeReadingTimeIgnoresCode(t *testing.T) {
	n, _ := newTestNormalizer()
	post := n.Normalize(RawDocument{
		"_id":     "d",
		"content": []any{code("go", strings.Repeat("x ", 1000))},
	})
	assert.Equal(t, 1, post.ReadingTime)
}

func TestNormalizeCustomWordsPerMinute(t *testing.T) {
	l, _ := newTestLogger()
	n := NewNormalizer(nil, l, NormalizerConfig{WordsPerMinute: 2})
	post := n.Normalize(RawDocument{"_id": "d", "content": []any{paragraph("a b c d e")}})
	assert.Equal(t, 3, post.ReadingTime)
}

func TestNormalizeDefaults(t *testing.T) {
	n, _ := newTestNormalizer()
	post := n.Normalize(RawDocument{"_id": "d", "category": "cooking", "coverImage": "ftp://example.com/x.png"})

	assert.Equal(t, "Untitled", post.Title)
	assert.Equal(t, "post-"+strconv.FormatInt(fixedNow.UnixMilli(), 10), post.Slug)
	assert.Equal(t, "/blog/"+post.Slug, post.URL)
	assert.Equal(t, DefaultCategory, post.Category)
	assert.Equal(t, "", post.CoverImage)
	assert.Empty(t, post.Tags)
	assert.Equal(t, "", post.Content)
}

func TestNormalizeCoverImageForms(t *testing.T) {
	n, _ := newTestNormalizer()
	tests := []struct {
		cover any
		want  string
	}{
		{"https://example.com/c.jpg", "https://example.com/c.jpg"},
		{map[string]any{"asset": map[string]any{"url": "https://example.com/d.jpg"}}, "https://example.com/d.jpg"},
		{map[string]any{"asset": map[string]any{"_ref": "broken"}}, ""},
		{map[string]any{}, ""},
		{42, ""},
	}
	for _, tt := range tests {
		post := n.Normalize(RawDocument{"_id": "d", "coverImage": tt.cover})
		assert.Equal(t, tt.want, post.CoverImage, "cover %v", tt.cover)
	}
}

func TestNormalizeMalformedReturnsErrorPost(t *testing.T) {
	docs := []RawDocument{
		nil,
		{"title": "no id"},
		{"_id": "d", "title": 42},
		{"_id": "d", "content": "not a list"},
		{"_id": "d", "tags": "go,web"},
		{"_id": "d", "slug": 7},
	}
	for _, doc := range docs {
		n, logs := newTestNormalizer()
		post := n.Normalize(doc)
		assert.Equal(t, ErrorPostTitle, post.Title, "doc %v", doc)
		assert.NotEmpty(t, post.ID)
		assert.NotEmpty(t, post.Slug)
		assert.Equal(t, FallbackDate, post.Date)
		assert.GreaterOrEqual(t, post.ReadingTime, 1)
		assert.Contains(t, logs.String(), "malformed document")
	}
}

type panickingResolver struct{}

func (panickingResolver) ResolveAsset(string) (string, error) { panic("boom") }

func TestNormalizeRecoversFromPanic(t *testing.T) {
	l, logs := newTestLogger()
	n := NewNormalizer(panickingResolver{}, l, NormalizerConfig{})
	post := n.Normalize(RawDocument{
		"_id":     "d",
		"content": []any{map[string]any{"_type": "image", "asset": map[string]any{"_ref": "image-a-1x1-png"}}},
	})
	assert.Equal(t, ErrorPostTitle, post.Title)
	assert.Contains(t, logs.String(), "recovered from panic")
}

func TestNormalizeAllIsolatesFailures(t *testing.T) {
	n, _ := newTestNormalizer()
	posts := n.NormalizeAll([]RawDocument{
		{"_id": "a", "title": "A", "slug": "a", "publishedAt": "2024-01-01"},
		{"_id": "b", "content": 12},
		{"_id": "c", "title": "C", "slug": "c", "publishedAt": "2024-01-02"},
	})
	require.Len(t, posts, 3)
	assert.Equal(t, "A", posts[0].Title)
	assert.Equal(t, ErrorPostTitle, posts[1].Title)
	assert.Equal(t, "C", posts[2].Title)
}

func TestNormalizeAllSynthesizesDistinctSlugs(t *testing.T) {
	n, _ := newTestNormalizer()
	posts := n.NormalizeAll([]RawDocument{
		{"_id": "a", "title": "A"},
		{"_id": "b", "title": "B"},
		{"title": "no id"},
		{"title": "no id either"},
	})
	require.Len(t, posts, 4)
	ms := fixedNow.UnixMilli()
	assert.Equal(t, "post-"+strconv.FormatInt(ms, 10), posts[0].Slug)
	assert.Equal(t, "post-"+strconv.FormatInt(ms+1, 10), posts[1].Slug)

	ids := map[string]bool{}
	slugs := map[string]bool{}
	for _, p := range posts {
		assert.False(t, ids[p.ID], "duplicate id %q", p.ID)
		assert.False(t, slugs[p.Slug], "duplicate slug %q", p.Slug)
		ids[p.ID] = true
		slugs[p.Slug] = true
	}
	assert.Equal(t, ErrorPostTitle, posts[2].Title)
	assert.Equal(t, posts[2].ID, posts[2].Slug)
	assert.NotEqual(t, posts[2].ID, posts[3].ID)
}

func TestNormalizeCodeBlockScenario(t *testing.T) {
	n, _ := newTestNormalizer()
	post := n.Normalize(RawDocument{
		"_id":     "d",
		"content": []any{code("js", "let x=1;")},
	})
	assert.Equal(t, "```js\nlet x=1;\n```", post.Content)
}
