package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const (
	postProjection = `{_id, title, slug, excerpt, coverImage, category, tags, featured, publishedAt, views, likes, content}`
	allPostsQuery  = `*[_type == "post"] | order(publishedAt desc) [0...%d] ` + postProjection
	postBySlug     = `*[_type == "post" && slug.current == $slug][0] ` + postProjection
)

// SanityClient queries the Sanity HTTP query API. It never retries; a retry
// is a fresh call made by the caller.
type SanityClient struct {
	cfg  SourceConfig
	http *http.Client
}

// NewSanityClient returns a client for cfg. A nil httpClient selects
// http.DefaultClient; the per-request timeout comes from cfg.Timeout.
func NewSanityClient(cfg SourceConfig, httpClient *http.Client) *SanityClient {
	cfg.SetDefaults()
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SanityClient{cfg: cfg, http: httpClient}
}

// FetchAll implements Source.
func (c *SanityClient) FetchAll(ctx context.Context) ([]RawDocument, error) {
	const op = "fetch all"
	raw, err := c.query(ctx, op, fmt.Sprintf(allPostsQuery, c.cfg.PageSize), nil)
	if err != nil {
		return nil, err
	}
	var docs []RawDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	return docs, nil
}

// FetchBySlug implements Source.
func (c *SanityClient) FetchBySlug(ctx context.Context, slug string) (*RawDocument, error) {
	const op = "fetch by slug"
	raw, err := c.query(ctx, op, postBySlug, map[string]string{"slug": slug})
	if err != nil {
		return nil, err
	}
	var doc RawDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	if doc == nil {
		return nil, nil
	}
	return &doc, nil
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
}

func (c *SanityClient) query(ctx context.Context, op, groq string, params map[string]string) (json.RawMessage, error) {
	if !c.cfg.Configured() {
		return nil, ErrUnconfigured
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(groq, params), nil)
	if err != nil {
		return nil, &FetchError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(ctx, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Op: op, Status: resp.StatusCode}
	}
	var body queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if ctx.Err() != nil {
			return nil, c.classify(ctx, op, err)
		}
		return nil, &DecodeError{Op: op, Err: err}
	}
	return body.Result, nil
}

func (c *SanityClient) classify(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Op: op, After: c.cfg.Timeout}
	}
	return &FetchError{Op: op, Err: err}
}

func (c *SanityClient) endpoint(groq string, params map[string]string) string {
	base := c.cfg.BaseURL
	if base == "" {
		host := "api.sanity.io"
		if c.cfg.UseCDN {
			host = "apicdn.sanity.io"
		}
		base = "https://" + url.PathEscape(c.cfg.ProjectID) + "." + host
	}
	q := url.Values{}
	q.Set("query", groq)
	for k, v := range params {
		// GROQ parameters are JSON literals.
		lit, _ := json.Marshal(v)
		q.Set("$"+k, string(lit))
	}
	return base + "/v" + c.cfg.APIVersion + "/data/query/" + url.PathEscape(c.cfg.Dataset) + "?" + q.Encode()
}
