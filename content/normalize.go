package content

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// WordsPerMinute is the assumed reading speed used for ReadingTime.
// It is a product decision, not a measured value; override it through
// NormalizerConfig.WordsPerMinute.
const WordsPerMinute = 200

// Fallback values for documents with a missing or unparsable publishedAt.
const (
	FallbackDate        = "2024-01-15"
	FallbackPublishedAt = "2024-01-15T00:00:00Z"
)

// ErrorPostTitle marks the placeholder returned for a malformed document.
const ErrorPostTitle = "Error Loading Post"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

// NormalizerConfig tunes a Normalizer. Zero values select the defaults.
type NormalizerConfig struct {
	WordsPerMinute int
	Now            func() time.Time
}

// Normalizer converts raw documents into canonical posts.
type Normalizer struct {
	assets AssetResolver
	logger echo.Logger
	wpm    int
	now    func() time.Time

	mu   sync.Mutex
	last int64 // newest stamp issued to a synthesized slug or id
}

// NewNormalizer returns a Normalizer that resolves image references with assets.
func NewNormalizer(assets AssetResolver, logger echo.Logger, cfg NormalizerConfig) *Normalizer {
	if cfg.WordsPerMinute <= 0 {
		cfg.WordsPerMinute = WordsPerMinute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Normalizer{assets: assets, logger: logger, wpm: cfg.WordsPerMinute, now: cfg.Now}
}

// Normalize builds a canonical Post from doc. It never panics: a document
// that cannot be normalized yields the error placeholder post.
func (n *Normalizer) Normalize(doc RawDocument) (post Post) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Errorj(log.JSON{
				"msg":   "normalize: recovered from panic",
				"id":    safeID(doc),
				"panic": fmt.Sprint(r),
			})
			post = n.errorPost()
		}
	}()

	p, err := n.normalize(doc)
	if err != nil {
		n.logger.Errorj(log.JSON{
			"msg":   "normalize: malformed document",
			"id":    safeID(doc),
			"error": err.Error(),
		})
		return n.errorPost()
	}
	return p
}

// NormalizeAll normalizes every document, preserving order.
func (n *Normalizer) NormalizeAll(docs []RawDocument) []Post {
	posts := make([]Post, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, n.Normalize(d))
	}
	return posts
}

// ReadingTime returns max(1, ceil(words / wpm)).
func (n *Normalizer) ReadingTime(words int) int {
	minutes := (words + n.wpm - 1) / n.wpm
	if minutes < 1 {
		return 1
	}
	return minutes
}

func (n *Normalizer) normalize(doc RawDocument) (Post, error) {
	if err := checkShape(doc); err != nil {
		return Post{}, err
	}
	blocks, err := ParseBlocks(doc["content"])
	if err != nil {
		return Post{}, err
	}

	title := strings.TrimSpace(stringField(doc, "title"))
	if title == "" {
		title = "Untitled"
	}
	slug := doc.Slug()
	if slug == "" {
		slug = "post-" + n.stamp()
	}
	category := strings.ToLower(strings.TrimSpace(stringField(doc, "category")))
	if !ValidCategory(category) {
		category = DefaultCategory
	}
	date, publishedAt := n.dates(doc)

	return Post{
		ID:          doc.ID(),
		Title:       title,
		Excerpt:     strings.TrimSpace(stringField(doc, "excerpt")),
		Content:     BlocksToText(blocks, n.assets),
		Slug:        slug,
		Date:        date,
		PublishedAt: publishedAt,
		CoverImage:  coverImageURL(n.assets, doc["coverImage"]),
		Tags:        tagsField(doc),
		Category:    category,
		Featured:    boolField(doc, "featured"),
		ReadingTime: n.ReadingTime(WordCount(blocks)),
		URL:         PostURL(slug),
		Views:       intField(doc, "views"),
		Likes:       intField(doc, "likes"),
	}, nil
}

// stamp returns the current epoch milliseconds, bumped past any value it
// has already returned so documents normalized in the same millisecond get
// distinct slugs.
func (n *Normalizer) stamp() string {
	ms := n.now().UnixMilli()
	n.mu.Lock()
	defer n.mu.Unlock()
	if ms <= n.last {
		ms = n.last + 1
	}
	n.last = ms
	return strconv.FormatInt(ms, 10)
}

func (n *Normalizer) dates(doc RawDocument) (string, string) {
	raw, present := doc["publishedAt"]
	if t, ok := parsePublishedAt(raw); ok && inRFC3339Range(t) {
		t = t.UTC()
		return t.Format(time.DateOnly), t.Format(time.RFC3339)
	}
	n.logger.Warnj(log.JSON{
		"msg":      "normalize: invalid publishedAt, using fallback",
		"id":       doc.ID(),
		"present":  present,
		"original": fmt.Sprintf("%v", raw),
		"fallback": FallbackPublishedAt,
	})
	return FallbackDate, FallbackPublishedAt
}

func parsePublishedAt(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case float64:
		if math.IsNaN(t) || math.Abs(t) >= math.MaxInt64 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(t)), true
	case int64:
		return time.UnixMilli(t), true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// inRFC3339Range reports whether t formats as a four-digit year.
func inRFC3339Range(t time.Time) bool {
	y := t.UTC().Year()
	return y >= 1 && y <= 9999
}

func (n *Normalizer) errorPost() Post {
	id := "error-" + n.stamp()
	return Post{
		ID:          id,
		Title:       ErrorPostTitle,
		Excerpt:     "This post could not be loaded.",
		Content:     "This post could not be loaded. Please try again later.",
		Slug:        id,
		Date:        FallbackDate,
		PublishedAt: FallbackPublishedAt,
		Tags:        []string{},
		Category:    DefaultCategory,
		ReadingTime: 1,
		URL:         PostURL(id),
	}
}

func safeID(doc RawDocument) (id string) {
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	return doc.ID()
}
