package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSanity(t *testing.T, h http.HandlerFunc) *SanityClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewSanityClient(SourceConfig{
		ProjectID: "abc123",
		Token:     "secret",
		BaseURL:   srv.URL,
		Timeout:   time.Second,
	}, srv.Client())
}

func TestSanityFetchAll(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	c := newTestSanity(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":[{"_id":"a","title":"A"},{"_id":"b","title":"B"}]}`))
	})

	docs, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID())
	assert.Equal(t, "B", docs[1]["title"])

	assert.Equal(t, "/v2024-01-01/data/query/production", gotPath)
	assert.Contains(t, gotQuery, `_type == "post"`)
	assert.Contains(t, gotQuery, "[0...50]")
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestSanityFetchBySlug(t *testing.T) {
	var gotSlug string
	c := newTestSanity(t, func(w http.ResponseWriter, r *http.Request) {
		gotSlug = r.URL.Query().Get("$slug")
		if gotSlug == `"missing"` {
			_, _ = w.Write([]byte(`{"result":null}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":{"_id":"a","slug":{"current":"hello"}}}`))
	})

	doc, err := c.FetchBySlug(context.Background(), "hello")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "hello", doc.Slug())
	assert.Equal(t, `"hello"`, gotSlug)

	doc, err = c.FetchBySlug(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestSanityNonOKStatus(t *testing.T) {
	c := newTestSanity(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})

	_, err := c.FetchAll(context.Background())
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusInternalServerError, fe.Status)
	assert.Equal(t, "fetch", errorClass(err))
}

func TestSanityDecodeError(t *testing.T) {
	c := newTestSanity(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"not a list"}`))
	})

	_, err := c.FetchAll(context.Background())
	var de *DecodeError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, "decode", errorClass(err))
}

func TestSanityTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	c := NewSanityClient(SourceConfig{
		ProjectID: "abc123",
		BaseURL:   srv.URL,
		Timeout:   20 * time.Millisecond,
	}, srv.Client())

	_, err := c.FetchAll(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "timeout", errorClass(err))
}

func TestSanityUnconfigured(t *testing.T) {
	for _, id := range []string{"", "  ", "your-project-id"} {
		c := NewSanityClient(SourceConfig{ProjectID: id}, nil)
		_, err := c.FetchAll(context.Background())
		assert.ErrorIs(t, err, ErrUnconfigured, "project id %q", id)
		_, err = c.FetchBySlug(context.Background(), "x")
		assert.ErrorIs(t, err, ErrUnconfigured)
	}
}

func TestSourceConfigDefaults(t *testing.T) {
	var cfg SourceConfig
	cfg.SetDefaults()
	assert.Equal(t, DefaultDataset, cfg.Dataset)
	assert.Equal(t, DefaultAPIVersion, cfg.APIVersion)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.False(t, cfg.Configured())
}
