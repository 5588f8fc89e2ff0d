package content

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// AssetResolver turns a store-specific asset reference into an absolute URL.
type AssetResolver interface {
	ResolveAsset(ref string) (string, error)
}

// ImageURLs builds CDN URLs for Sanity image asset references of the form
// image-<id>-<width>x<height>-<format>.
type ImageURLs struct {
	ProjectID string
	Dataset   string
	BaseURL   string // default https://cdn.sanity.io
}

var reDimensions = regexp.MustCompile(`^\d+x\d+$`)

// ResolveAsset implements AssetResolver.
func (u ImageURLs) ResolveAsset(ref string) (string, error) {
	if u.ProjectID == "" || u.Dataset == "" {
		return "", fmt.Errorf("%w: image urls not configured", ErrMissingAsset)
	}
	rest, ok := strings.CutPrefix(ref, "image-")
	if !ok {
		return "", fmt.Errorf("%w: %q is not an image reference", ErrMalformedAsset, ref)
	}
	parts := strings.Split(rest, "-")
	if len(parts) < 3 {
		return "", fmt.Errorf("%w: %q", ErrMalformedAsset, ref)
	}
	format := parts[len(parts)-1]
	dims := parts[len(parts)-2]
	id := strings.Join(parts[:len(parts)-2], "-")
	if id == "" || format == "" || !reDimensions.MatchString(dims) {
		return "", fmt.Errorf("%w: %q", ErrMalformedAsset, ref)
	}
	base := u.BaseURL
	if base == "" {
		base = "https://cdn.sanity.io"
	}
	return strings.TrimSuffix(base, "/") + "/images/" + url.PathEscape(u.ProjectID) + "/" +
		url.PathEscape(u.Dataset) + "/" + id + "-" + dims + "." + format, nil
}

// absoluteURL accepts only absolute http(s) URLs.
func absoluteURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedAsset, err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		if parsed.Host == "" {
			return "", fmt.Errorf("%w: %q has no host", ErrMalformedAsset, raw)
		}
		return raw, nil
	default:
		return "", fmt.Errorf("%w: %q is not an absolute http url", ErrMalformedAsset, raw)
	}
}

// coverImageURL resolves the coverImage field of a raw document, which is
// either a literal URL string or an image object with an asset.
func coverImageURL(assets AssetResolver, v any) string {
	switch c := v.(type) {
	case string:
		u, err := absoluteURL(c)
		if err != nil {
			return ""
		}
		return u
	case map[string]any:
		var ref, literal string
		if asset, ok := c["asset"].(map[string]any); ok {
			ref = stringField(asset, "_ref")
			literal = stringField(asset, "url")
		}
		if literal == "" {
			literal = stringField(c, "url")
		}
		u, err := resolveImage(assets, ref, literal)
		if err != nil {
			return ""
		}
		return u
	default:
		return ""
	}
}
