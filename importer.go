package folio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/eringen/folio/content"
)

// DocumentWriter stores raw documents. content.SQLiteSource implements it.
type DocumentWriter interface {
	SaveDocument(ctx context.Context, doc content.RawDocument) error
}

// DecodeDocuments reads either a JSON array of post documents or a single
// document object.
func DecodeDocuments(r io.Reader) ([]content.RawDocument, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("folio: decode documents: %w", err)
	}
	if trimmed := strings.TrimSpace(string(raw)); strings.HasPrefix(trimmed, "{") {
		var doc content.RawDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("folio: decode document: %w", err)
		}
		return []content.RawDocument{doc}, nil
	}
	var docs []content.RawDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("folio: decode documents: %w", err)
	}
	return docs, nil
}

// ImportDocuments writes docs to w. A document without a slug gets one
// derived from its title, and one without an _id gets a random id, so
// every stored document is addressable.
func ImportDocuments(ctx context.Context, w DocumentWriter, docs []content.RawDocument) (int, error) {
	n := 0
	for i, doc := range docs {
		if doc == nil {
			continue
		}
		if doc.Slug() == "" {
			title, _ := doc["title"].(string)
			if slug := Slugify(title); slug != "" {
				doc["slug"] = map[string]any{"current": slug}
			}
		}
		if doc.ID() == "" {
			doc["_id"] = uuid.NewString()
		}
		if _, ok := doc["_type"]; !ok {
			doc["_type"] = "post"
		}
		if err := w.SaveDocument(ctx, doc); err != nil {
			return n, fmt.Errorf("folio: import document %d: %w", i, err)
		}
		n++
	}
	return n, nil
}
