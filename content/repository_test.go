package content

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	docs   []RawDocument
	bySlug map[string]RawDocument
	err    error
}

func (f *fakeSource) FetchAll(ctx context.Context) ([]RawDocument, error) {
	return f.docs, f.err
}

func (f *fakeSource) FetchBySlug(ctx context.Context, slug string) (*RawDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	if d, ok := f.bySlug[slug]; ok {
		return &d, nil
	}
	return nil, nil
}

func newTestRepository(src Source) (*Repository, *bytes.Buffer) {
	l, buf := newTestLogger()
	n := NewNormalizer(testAssets, l, NormalizerConfig{Now: func() time.Time { return fixedNow }})
	return NewRepository(src, n, l), buf
}

func TestLoadAllUnconfiguredServesFallback(t *testing.T) {
	repo, logs := newTestRepository(nil)
	posts := repo.LoadAll(context.Background())

	require.Len(t, posts, 2)
	for _, p := range posts {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Slug)
		assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, p.Date)
		assert.GreaterOrEqual(t, p.ReadingTime, 1)
		assert.True(t, ValidCategory(p.Category))
		assert.Equal(t, "/blog/"+p.Slug, p.URL)
	}
	assert.Equal(t, WelcomeSlug, posts[0].Slug, "newest first")
	assert.Equal(t, GoGuideSlug, posts[1].Slug)
	assert.Contains(t, logs.String(), "unconfigured")
}

func TestLoadAllFallsBackOnError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		class string
	}{
		{"unconfigured", ErrUnconfigured, "configuration"},
		{"timeout", &TimeoutError{Op: "fetch all", After: time.Second}, "timeout"},
		{"fetch", &FetchError{Op: "fetch all", Status: 503}, "fetch"},
		{"decode", &DecodeError{Op: "fetch all", Err: errors.New("bad json")}, "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, logs := newTestRepository(&fakeSource{err: tt.err})
			posts := repo.LoadAll(context.Background())
			require.Len(t, posts, 2)
			assert.Contains(t, logs.String(), `"class":"`+tt.class+`"`)
		})
	}
}

func TestLoadAllFallsBackOnEmpty(t *testing.T) {
	repo, logs := newTestRepository(&fakeSource{docs: []RawDocument{}})
	posts := repo.LoadAll(context.Background())
	require.Len(t, posts, 2)
	assert.Contains(t, logs.String(), "no posts")
}

func TestLoadAllSortsRemotePosts(t *testing.T) {
	src := &fakeSource{docs: []RawDocument{
		{"_id": "1", "slug": "older", "publishedAt": "2024-01-01T00:00:00Z"},
		{"_id": "2", "slug": "newer", "publishedAt": "2024-09-01T00:00:00Z"},
		{"_id": "3", "slug": "broken", "content": 7},
	}}
	repo, _ := newTestRepository(src)
	posts := repo.LoadAll(context.Background())

	require.Len(t, posts, 3)
	assert.Equal(t, "newer", posts[0].Slug)
	// the placeholder carries the fallback date, 2024-01-15
	assert.Equal(t, ErrorPostTitle, posts[1].Title)
	assert.Equal(t, "older", posts[2].Slug)
}

func TestGetBySlug(t *testing.T) {
	t.Run("fallback corpus", func(t *testing.T) {
		repo, _ := newTestRepository(nil)
		p := repo.GetBySlug(context.Background(), WelcomeSlug)
		require.NotNil(t, p)
		assert.Equal(t, "Welcome to My Blog!", p.Title)
	})

	t.Run("source hit", func(t *testing.T) {
		repo, _ := newTestRepository(&fakeSource{bySlug: map[string]RawDocument{
			"remote": {"_id": "r", "title": "Remote", "slug": "remote"},
		}})
		p := repo.GetBySlug(context.Background(), "remote")
		require.NotNil(t, p)
		assert.Equal(t, "Remote", p.Title)
	})

	t.Run("source miss falls through to fallback", func(t *testing.T) {
		repo, _ := newTestRepository(&fakeSource{bySlug: map[string]RawDocument{}})
		p := repo.GetBySlug(context.Background(), GoGuideSlug)
		require.NotNil(t, p)
		assert.Equal(t, "Getting Started with Go", p.Title)
	})

	t.Run("source error falls through to fallback", func(t *testing.T) {
		repo, logs := newTestRepository(&fakeSource{err: &FetchError{Op: "fetch by slug", Status: 500}})
		p := repo.GetBySlug(context.Background(), WelcomeSlug)
		require.NotNil(t, p)
		assert.Contains(t, logs.String(), `"slug":"`+WelcomeSlug+`"`)
	})

	t.Run("unknown", func(t *testing.T) {
		repo, _ := newTestRepository(nil)
		assert.Nil(t, repo.GetBySlug(context.Background(), "does-not-exist"))
		assert.Nil(t, repo.GetBySlug(context.Background(), "   "))
	})
}

func TestSearch(t *testing.T) {
	repo, _ := newTestRepository(nil)
	ctx := context.Background()

	assert.Empty(t, repo.Search(ctx, ""))
	assert.NotNil(t, repo.Search(ctx, "   "))
	assert.Empty(t, repo.Search(ctx, "kubernetes"))

	got := repo.Search(ctx, "tutorial")
	require.Len(t, got, 1)
	assert.Equal(t, GoGuideSlug, got[0].Slug)

	got = repo.Search(ctx, "WELCOME")
	require.Len(t, got, 1)
	assert.Equal(t, WelcomeSlug, got[0].Slug)

	got = repo.Search(ctx, "backend")
	require.Len(t, got, 1, "tags are searched")
}

func TestByCategoryAndFeatured(t *testing.T) {
	repo, _ := newTestRepository(nil)
	ctx := context.Background()

	tut := repo.ByCategory(ctx, " Tutorial ")
	require.Len(t, tut, 1)
	assert.Equal(t, GoGuideSlug, tut[0].Slug)
	assert.Empty(t, repo.ByCategory(ctx, CategoryCareer))

	feat := repo.Featured(ctx)
	require.Len(t, feat, 1)
	assert.Equal(t, WelcomeSlug, feat[0].Slug)
}

func TestSortedIsStableCopy(t *testing.T) {
	posts := []Post{
		{Slug: "a", Views: 5, Likes: 1, PublishedAt: "2024-01-01T00:00:00Z"},
		{Slug: "b", Views: 9, Likes: 1, PublishedAt: "2024-03-01T00:00:00Z"},
		{Slug: "c", Views: 5, Likes: 4, PublishedAt: "2024-02-01T00:00:00Z"},
	}
	slugs := func(ps []Post) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.Slug
		}
		return out
	}

	assert.Equal(t, []string{"b", "c", "a"}, slugs(Sorted(posts, SortDate)))
	assert.Equal(t, []string{"b", "a", "c"}, slugs(Sorted(posts, SortViews)))
	assert.Equal(t, []string{"c", "a", "b"}, slugs(Sorted(posts, SortLikes)))
	assert.Equal(t, []string{"a", "b", "c"}, slugs(posts), "input untouched")
}

func TestParseSortBy(t *testing.T) {
	assert.Equal(t, SortViews, ParseSortBy(" Views "))
	assert.Equal(t, SortLikes, ParseSortBy("likes"))
	assert.Equal(t, SortDate, ParseSortBy(""))
	assert.Equal(t, SortDate, ParseSortBy("random"))
}

func TestGeneration(t *testing.T) {
	var g Generation
	first := g.Next()
	assert.True(t, g.Current(first))

	second := g.Next()
	assert.False(t, g.Current(first), "superseded token is stale")
	assert.True(t, g.Current(second))
}
