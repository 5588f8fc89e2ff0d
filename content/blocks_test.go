package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAssets = ImageURLs{ProjectID: "abc123", Dataset: "production"}

func TestParseBlocks(t *testing.T) {
	blocks, err := ParseBlocks([]any{
		map[string]any{"_type": "block", "style": "h2", "children": []any{
			map[string]any{"text": "Hello "},
			map[string]any{"_type": "span"},
			map[string]any{"text": "world"},
		}},
		map[string]any{"_type": "code", "language": "js", "code": "let x=1;"},
		map[string]any{"_type": "image", "asset": map[string]any{"_ref": "image-abc-10x20-png"}, "alt": "Diagram"},
		map[string]any{"_type": "youtube"},
		"not a block",
	})
	require.NoError(t, err)
	require.Len(t, blocks, 5)

	assert.Equal(t, ParagraphBlock{Style: "h2", Children: []Span{{Text: "Hello "}, {Text: ""}, {Text: "world"}}}, blocks[0])
	assert.Equal(t, CodeBlock{Language: "js", Code: "let x=1;"}, blocks[1])
	assert.Equal(t, ImageBlock{AssetRef: "image-abc-10x20-png", Alt: "Diagram"}, blocks[2])
	assert.Equal(t, UnknownBlock{Type: "youtube"}, blocks[3])
	assert.Equal(t, UnknownBlock{}, blocks[4])
}

func TestParseBlocksRejectsNonList(t *testing.T) {
	_, err := ParseBlocks("just a string")
	assert.Error(t, err)

	blocks, err := ParseBlocks(nil)
	assert.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestBlocksToTextStyles(t *testing.T) {
	tests := []struct {
		style string
		want  string
	}{
		{"normal", "text"},
		{"h1", "# text"},
		{"h2", "## text"},
		{"h3", "### text"},
		{"h4", "#### text"},
		{"blockquote", "> text"},
		{"unknown-style", "text"},
	}
	for _, tt := range tests {
		got := BlocksToText([]RawBlock{ParagraphBlock{Style: tt.style, Children: []Span{{Text: "text"}}}}, nil)
		assert.Equal(t, tt.want, got, "style %s", tt.style)
	}
}

func TestBlocksToTextKeepsHeadingsOnOneLine(t *testing.T) {
	for style, prefix := range map[string]string{"h2": "## ", "blockquote": "> "} {
		blocks := []RawBlock{ParagraphBlock{Style: style, Children: []Span{{Text: "Line one\n"}, {Text: "line\r\ntwo"}}}}
		assert.Equal(t, prefix+"Line one line two", BlocksToText(blocks, nil), "style %s", style)
	}
	blocks := []RawBlock{ParagraphBlock{Style: "normal", Children: []Span{{Text: "a\nb"}}}}
	assert.Equal(t, "a\nb", BlocksToText(blocks, nil))
}

func TestBlocksToTextJoinsWithBlankLine(t *testing.T) {
	blocks := []RawBlock{
		ParagraphBlock{Style: "h1", Children: []Span{{Text: "Title"}}},
		ParagraphBlock{Style: "normal", Children: []Span{{Text: "   "}}},
		ParagraphBlock{Style: "normal", Children: []Span{{Text: "Body"}}},
		CodeBlock{Language: "js", Code: "let x=1;"},
	}
	assert.Equal(t, "# Title\n\nBody\n\n```js\nlet x=1;\n```", BlocksToText(blocks, nil))
}

func TestBlocksToTextImages(t *testing.T) {
	blocks := []RawBlock{
		ImageBlock{AssetRef: "image-Tb9Ew8CXIwaY6R1kjMvI0uRR-2000x3000-jpg", Alt: "Cover"},
		ImageBlock{AssetURL: "https://example.com/a.png", Caption: "From caption"},
		ImageBlock{AssetURL: "https://example.com/b.png"},
		ImageBlock{AssetRef: "file-broken"},
		ImageBlock{},
		ParagraphBlock{Children: []Span{{Text: "still here"}}},
	}
	got := BlocksToText(blocks, testAssets)
	want := "![Cover](https://cdn.sanity.io/images/abc123/production/Tb9Ew8CXIwaY6R1kjMvI0uRR-2000x3000.jpg)\n\n" +
		"![From caption](https://example.com/a.png)\n\n" +
		"![Image](https://example.com/b.png)\n\n" +
		"still here"
	assert.Equal(t, want, got)
}

func TestWordCountCountsOnlyProse(t *testing.T) {
	blocks := []RawBlock{
		ParagraphBlock{Style: "h2", Children: []Span{{Text: "Two words"}}},
		ParagraphBlock{Style: "normal", Children: []Span{{Text: "  three   more\twords "}}},
		ParagraphBlock{Style: "blockquote", Children: []Span{{Text: "quoted"}}},
		CodeBlock{Language: "go", Code: "func main() { these are not counted }"},
		ImageBlock{AssetURL: "https://example.com/x.png", Alt: "not counted"},
		UnknownBlock{Type: "youtube"},
	}
	assert.Equal(t, 6, WordCount(blocks))
	assert.Equal(t, 0, WordCount(nil))
}

func TestImageURLsResolveAsset(t *testing.T) {
	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"image-abc-10x20-png", "https://cdn.sanity.io/images/abc123/production/abc-10x20.png", false},
		{"image-a-b-c-640x480-webp", "https://cdn.sanity.io/images/abc123/production/a-b-c-640x480.webp", false},
		{"file-abc-pdf", "", true},
		{"image-abc-png", "", true},
		{"image-abc-wide-png", "", true},
	}
	for _, tt := range tests {
		got, err := testAssets.ResolveAsset(tt.ref)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrMalformedAsset, tt.ref)
			continue
		}
		require.NoError(t, err, tt.ref)
		assert.Equal(t, tt.want, got)
	}

	_, err := ImageURLs{}.ResolveAsset("image-abc-10x20-png")
	assert.ErrorIs(t, err, ErrMissingAsset)
}
