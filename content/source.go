package content

import (
	"context"
	"strings"
	"time"
)

// Source is a read-only content store.
type Source interface {
	// FetchAll returns post documents ordered by publishedAt descending,
	// capped at the source's page size.
	FetchAll(ctx context.Context) ([]RawDocument, error)
	// FetchBySlug returns the post whose slug.current equals slug, or nil.
	FetchBySlug(ctx context.Context, slug string) (*RawDocument, error)
}

// Defaults for SourceConfig.
const (
	DefaultTimeout    = 5 * time.Second
	DefaultPageSize   = 50
	DefaultDataset    = "production"
	DefaultAPIVersion = "2024-01-01"
)

// SourceConfig identifies the remote content store. It is built once at
// startup and handed to NewSanityClient.
type SourceConfig struct {
	ProjectID  string        `yaml:"project_id"`
	Dataset    string        `yaml:"dataset"`
	APIVersion string        `yaml:"api_version"`
	Token      string        `yaml:"token"`
	UseCDN     bool          `yaml:"use_cdn"`
	Timeout    time.Duration `yaml:"timeout"`
	PageSize   int           `yaml:"page_size"`
	// BaseURL overrides https://<project>.api.sanity.io.
	BaseURL string `yaml:"base_url"`
}

// SetDefaults fills zero fields with their defaults.
func (c *SourceConfig) SetDefaults() {
	if c.Dataset == "" {
		c.Dataset = DefaultDataset
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
}

// Configured reports whether c carries a usable project id.
func (c SourceConfig) Configured() bool {
	id := strings.TrimSpace(c.ProjectID)
	return id != "" && id != "your-project-id"
}

// Assets returns the image URL builder for this project.
func (c SourceConfig) Assets() ImageURLs {
	return ImageURLs{ProjectID: c.ProjectID, Dataset: c.Dataset}
}
