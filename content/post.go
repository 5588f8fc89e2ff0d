// Package content retrieves blog documents from a content store and
// normalizes them into canonical posts.
//
// The pipeline is Source (raw documents) -> Normalizer (canonical Post) ->
// Repository (fallback chain, filters, ordering). Every public Repository
// operation is total: callers receive posts or nil, never an error.
package content

// Post is the normalized, always-valid post every view consumes.
type Post struct {
	ID          string
	Title       string
	Excerpt     string
	Content     string
	Slug        string
	Date        string // YYYY-MM-DD
	PublishedAt string // RFC3339, UTC
	CoverImage  string // absolute URL or ""
	Tags        []string
	Category    string
	Featured    bool
	ReadingTime int // minutes, >= 1
	URL         string
	Views       int
	Likes       int
}

// Category ids a post may carry. Anything else normalizes to DefaultCategory.
const (
	CategoryTech     = "tech"
	CategoryDesign   = "design"
	CategoryTutorial = "tutorial"
	CategoryCareer   = "career"
	CategoryPersonal = "personal"

	DefaultCategory = CategoryTech
)

var categories = map[string]struct{}{
	CategoryTech:     {},
	CategoryDesign:   {},
	CategoryTutorial: {},
	CategoryCareer:   {},
	CategoryPersonal: {},
}

// ValidCategory reports whether id is a known category id.
func ValidCategory(id string) bool {
	_, ok := categories[id]
	return ok
}

// Categories returns the known category ids in display order.
func Categories() []string {
	return []string{CategoryTech, CategoryDesign, CategoryTutorial, CategoryCareer, CategoryPersonal}
}

// PostURL returns the routable path of the post with the given slug.
func PostURL(slug string) string {
	return "/blog/" + slug
}
