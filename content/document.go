package content

import (
	"fmt"
	"strings"
)

// RawDocument is a post document exactly as the content store returned it,
// decoded from JSON without a schema:
//
//	{_id, title, slug:{current}, excerpt, coverImage, category, tags[],
//	 featured, publishedAt, views, likes, content[]}
type RawDocument map[string]any

// ID returns the document _id, or "" when absent or not a string.
func (d RawDocument) ID() string {
	return stringField(d, "_id")
}

// Slug returns slug.current. A plain string slug is accepted too.
func (d RawDocument) Slug() string {
	switch s := d["slug"].(type) {
	case string:
		return strings.TrimSpace(s)
	case map[string]any:
		return strings.TrimSpace(stringField(s, "current"))
	default:
		return ""
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) int {
	switch n := m[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// checkShape rejects documents whose nested fields have the wrong JSON type.
// Absent fields are fine; normalization substitutes defaults for them.
func checkShape(d RawDocument) error {
	if d == nil {
		return fmt.Errorf("content: nil document")
	}
	if d.ID() == "" {
		return fmt.Errorf("content: document has no _id")
	}
	if v, ok := d["title"]; ok && v != nil {
		if _, ok := v.(string); !ok {
			return fmt.Errorf("content: title is %T", v)
		}
	}
	if v, ok := d["slug"]; ok && v != nil {
		switch v.(type) {
		case string, map[string]any:
		default:
			return fmt.Errorf("content: slug is %T", v)
		}
	}
	if v, ok := d["tags"]; ok && v != nil {
		if _, ok := v.([]any); !ok {
			if _, ok := v.([]string); !ok {
				return fmt.Errorf("content: tags is %T", v)
			}
		}
	}
	return nil
}

func tagsField(d RawDocument) []string {
	var raw []any
	switch t := d["tags"].(type) {
	case []any:
		raw = t
	case []string:
		for _, s := range t {
			raw = append(raw, s)
		}
	}
	tags := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			tags = append(tags, s)
		}
	}
	return tags
}
