package content

import (
	"fmt"
	"strings"
)

// RawBlock is one element of a document's rich-text block sequence.
// The concrete types are ParagraphBlock, CodeBlock, ImageBlock and
// UnknownBlock; consumers switch over all of them.
type RawBlock interface {
	rawBlock()
}

// ParagraphBlock is a text block. Style is one of normal, h1..h4 or blockquote.
type ParagraphBlock struct {
	Style    string
	Children []Span
}

// Span is an inline run of text inside a ParagraphBlock.
type Span struct {
	Text string
}

// CodeBlock is a fenced code sample.
type CodeBlock struct {
	Language string
	Code     string
}

// ImageBlock references an image either by asset reference or literal URL.
type ImageBlock struct {
	AssetRef string
	AssetURL string
	Alt      string
	Caption  string
}

// UnknownBlock is a block whose _type is not handled by the pipeline.
type UnknownBlock struct {
	Type string
}

func (ParagraphBlock) rawBlock() {}
func (CodeBlock) rawBlock()      {}
func (ImageBlock) rawBlock()     {}
func (UnknownBlock) rawBlock()   {}

// Text concatenates the text of every child span.
func (b ParagraphBlock) Text() string {
	var sb strings.Builder
	for _, s := range b.Children {
		if s.Text == "" {
			continue
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}

var stylePrefix = map[string]string{
	"h1":         "# ",
	"h2":         "## ",
	"h3":         "### ",
	"h4":         "#### ",
	"blockquote": "> ",
}

// ParseBlocks converts the loosely-typed content field of a raw document
// into blocks. A nil value yields no blocks; a value that is not a list is
// malformed. Individual elements that cannot be decoded become UnknownBlock.
func ParseBlocks(v any) ([]RawBlock, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("content: block sequence is %T, want list", v)
	}
	blocks := make([]RawBlock, 0, len(items))
	for _, item := range items {
		blocks = append(blocks, parseBlock(item))
	}
	return blocks, nil
}

func parseBlock(v any) RawBlock {
	m, ok := v.(map[string]any)
	if !ok {
		return UnknownBlock{}
	}
	typ := stringField(m, "_type")
	switch typ {
	case "block":
		style := stringField(m, "style")
		if style == "" {
			style = "normal"
		}
		b := ParagraphBlock{Style: style}
		children, _ := m["children"].([]any)
		for _, c := range children {
			cm, ok := c.(map[string]any)
			if !ok {
				continue
			}
			b.Children = append(b.Children, Span{Text: stringField(cm, "text")})
		}
		return b
	case "code":
		return CodeBlock{
			Language: stringField(m, "language"),
			Code:     stringField(m, "code"),
		}
	case "image":
		b := ImageBlock{
			Alt:      stringField(m, "alt"),
			Caption:  stringField(m, "caption"),
			AssetURL: stringField(m, "url"),
		}
		if asset, ok := m["asset"].(map[string]any); ok {
			b.AssetRef = stringField(asset, "_ref")
			if u := stringField(asset, "url"); u != "" {
				b.AssetURL = u
			}
		}
		return b
	default:
		return UnknownBlock{Type: typ}
	}
}

// segment is the normalized form of one logical block. prose holds the
// text that counts towards reading time.
type segment struct {
	line  string
	prose string
}

// segments is the single traversal shared by BlocksToText and WordCount.
func segments(blocks []RawBlock, assets AssetResolver) []segment {
	out := make([]segment, 0, len(blocks))
	for _, block := range blocks {
		switch b := block.(type) {
		case ParagraphBlock:
			text := b.Text()
			if strings.TrimSpace(text) == "" {
				continue
			}
			prefix := stylePrefix[b.Style]
			if prefix != "" {
				// Prefixed styles are one line each in the flattened text.
				text = strings.Join(strings.Fields(text), " ")
			}
			out = append(out, segment{line: prefix + text, prose: text})
		case CodeBlock:
			if b.Code == "" {
				continue
			}
			out = append(out, segment{line: "```" + b.Language + "\n" + b.Code + "\n```"})
		case ImageBlock:
			src, err := resolveImage(assets, b.AssetRef, b.AssetURL)
			if err != nil {
				continue
			}
			alt := b.Alt
			if alt == "" {
				alt = b.Caption
			}
			if alt == "" {
				alt = "Image"
			}
			out = append(out, segment{line: "![" + alt + "](" + src + ")"})
		case UnknownBlock:
			continue
		}
	}
	return out
}

// BlocksToText flattens blocks into the markdown-like text the line renderer
// consumes. Logical blocks are separated by a blank line.
func BlocksToText(blocks []RawBlock, assets AssetResolver) string {
	segs := segments(blocks, assets)
	lines := make([]string, len(segs))
	for i, s := range segs {
		lines[i] = s.line
	}
	return strings.Join(lines, "\n\n")
}

// WordCount counts whitespace-separated words in paragraph and heading text.
func WordCount(blocks []RawBlock) int {
	n := 0
	for _, s := range segments(blocks, nil) {
		n += len(strings.Fields(s.prose))
	}
	return n
}

func resolveImage(assets AssetResolver, ref, literal string) (string, error) {
	if literal != "" {
		return absoluteURL(literal)
	}
	if ref == "" {
		return "", ErrMissingAsset
	}
	if assets == nil {
		return "", fmt.Errorf("%w: no resolver for %q", ErrMissingAsset, ref)
	}
	return assets.ResolveAsset(ref)
}
