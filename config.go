package folio

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eringen/folio/content"
)

// Content source kinds.
const (
	SourceSanity = "sanity"
	SourceSQLite = "sqlite"
	SourceNone   = "none" // fallback corpus only
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Blog")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`      // Author name for JSON-LD

	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // Local document store (default "data/content.db")
	PrefsPath    string `yaml:"prefs_path"`    // Visitor preferences (default "data/prefs.db")

	SessionSecret string `yaml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `yaml:"cookie_secure"`  // Set true for HTTPS

	// RevalidateSecret enables POST /api/revalidate/ for Bearer callers
	// presenting it. Empty disables the route.
	RevalidateSecret string `yaml:"revalidate_secret"`

	ContentSource  string               `yaml:"content_source"` // sanity, sqlite or none (default sanity)
	Sanity         content.SourceConfig `yaml:"sanity"`
	WordsPerMinute int                  `yaml:"words_per_minute"`
	PostCacheTTL   time.Duration        `yaml:"post_cache_ttl"` // Post cache TTL (default 5min)
	RateLimit      int                  `yaml:"rate_limit"`     // Like/search requests per window (default 30)
	RateWindow     time.Duration        `yaml:"rate_window"`    // default 1min
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/content.db"
	}
	if c.PrefsPath == "" {
		c.PrefsPath = "data/prefs.db"
	}
	if c.ContentSource == "" {
		c.ContentSource = SourceSanity
	}
	if c.WordsPerMinute <= 0 {
		c.WordsPerMinute = content.WordsPerMinute
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 30
	}
	if c.RateWindow <= 0 {
		c.RateWindow = time.Minute
	}
	c.Sanity.SetDefaults()
}

// Validate reports every problem with c at once.
func (c SiteConfig) Validate() error {
	var verr ValidationError
	if c.SessionSecret == "" {
		verr.Add("session_secret", "is required")
	} else if len(c.SessionSecret) < 16 {
		verr.Add("session_secret", "must be at least 16 bytes")
	}
	if c.RevalidateSecret != "" && len(c.RevalidateSecret) < 16 {
		verr.Add("revalidate_secret", "must be at least 16 bytes")
	}
	if u, err := url.Parse(c.URL); err != nil || u.Scheme == "" || u.Host == "" {
		verr.Add("url", fmt.Sprintf("%q is not an absolute URL", c.URL))
	}
	switch c.ContentSource {
	case SourceSanity, SourceSQLite, SourceNone:
	default:
		verr.Add("content_source", fmt.Sprintf("unknown source %q", c.ContentSource))
	}
	if c.PostCacheTTL < 0 {
		verr.Add("post_cache_ttl", "must not be negative")
	}
	if verr.HasAny() {
		return verr
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithSource replaces the content source chosen by ContentSource.
func WithSource(src content.Source) Option {
	return func(a *App) {
		a.source = src
		a.sourceSet = true
	}
}

// LoadConfig builds a SiteConfig from an optional YAML file, then .env.local
// and .env, then the process environment. Later layers win.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("folio: read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("folio: parse config %s: %w", path, err)
		}
	}
	for _, f := range []string{".env.local", ".env"} {
		// godotenv never overrides variables that are already set, so
		// .env.local wins over .env.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("folio: load %s: %w", f, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func applyEnv(cfg *SiteConfig) error {
	strs := map[string]*string{
		"SITE_NAME":          &cfg.Name,
		"SITE_URL":           &cfg.URL,
		"SITE_DESCRIPTION":   &cfg.Description,
		"SITE_AUTHOR":        &cfg.Author,
		"ADDR":               &cfg.Addr,
		"DATABASE_PATH":      &cfg.DatabasePath,
		"PREFS_PATH":         &cfg.PrefsPath,
		"SESSION_SECRET":     &cfg.SessionSecret,
		"REVALIDATE_SECRET":  &cfg.RevalidateSecret,
		"CONTENT_SOURCE":     &cfg.ContentSource,
		"SANITY_PROJECT_ID":  &cfg.Sanity.ProjectID,
		"SANITY_DATASET":     &cfg.Sanity.Dataset,
		"SANITY_API_VERSION": &cfg.Sanity.APIVersion,
		"SANITY_TOKEN":       &cfg.Sanity.Token,
	}
	for key, dst := range strs {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	var verr ValidationError
	bools := map[string]*bool{
		"COOKIE_SECURE":  &cfg.CookieSecure,
		"SANITY_USE_CDN": &cfg.Sanity.UseCDN,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				verr.Add(key, fmt.Sprintf("%q is not a boolean", v))
				continue
			}
			*dst = b
		}
	}
	if v := os.Getenv("SANITY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			verr.Add("SANITY_TIMEOUT", fmt.Sprintf("%q is not a duration", v))
		} else {
			cfg.Sanity.Timeout = d
		}
	}
	if verr.HasAny() {
		return verr
	}
	return nil
}
