// Package markdown turns post content text into display nodes and renders
// them as a templ component.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
)

// Placeholder is the text of the paragraph returned for empty input.
const Placeholder = "No content available."

// Kind identifies the variant of a Node.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindList
	KindBlockquote
	KindCodeBlock
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindList:
		return "list"
	case KindBlockquote:
		return "blockquote"
	case KindCodeBlock:
		return "codeBlock"
	case KindImage:
		return "image"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Node is one display block. Which fields are set depends on Kind:
//
//	KindHeading     Level, Text
//	KindParagraph   HTML (sanitized)
//	KindList        Items
//	KindBlockquote  Text
//	KindCodeBlock   Language, Code
//	KindImage       Alt, Src
type Node struct {
	Kind     Kind
	Level    int
	Text     string
	HTML     string
	Items    []string
	Language string
	Code     string
	Alt      string
	Src      string
}

const fence = "```"

var (
	reBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic     = regexp.MustCompile(`\*([^*]+)\*`)
	reInlineCode = regexp.MustCompile("`([^`]+)`")
	reLink       = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	reImageLine  = regexp.MustCompile(`^!\[(.*?)\]\((\S+?)\)$`)
)

const linkClass = "underline decoration-2 underline-offset-4"

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https", "mailto", "tel")
	p.AllowElements("strong", "em", "code")
	p.AllowAttrs("href", "target", "rel").OnElements("a")
	p.AllowAttrs("class").OnElements("a", "code")
	return p
}

// Sanitize strips every tag and attribute outside the paragraph allow-list.
func Sanitize(s string) string {
	return policy.Sanitize(s)
}

// Render parses content line by line into display nodes. It never returns
// an empty slice; input with nothing renderable yields a placeholder
// paragraph.
func Render(content string) (nodes []Node) {
	defer func() {
		if recover() != nil {
			nodes = placeholder()
		}
	}()
	if strings.TrimSpace(content) == "" {
		return placeholder()
	}

	var (
		inCode   bool
		codeLang string
		code     []string
		items    []string
	)
	flushList := func() {
		if len(items) > 0 {
			nodes = append(nodes, Node{Kind: KindList, Items: items})
			items = nil
		}
	}
	flushCode := func() {
		nodes = append(nodes, Node{Kind: KindCodeBlock, Language: codeLang, Code: strings.Join(code, "\n")})
		inCode, codeLang, code = false, "", nil
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.HasPrefix(line, fence) {
			if inCode {
				flushCode()
			} else {
				flushList()
				inCode = true
				codeLang = strings.TrimSpace(line[len(fence):])
			}
			continue
		}
		if inCode {
			code = append(code, line)
			continue
		}

		if strings.HasPrefix(line, "- ") {
			items = append(items, strings.TrimSpace(line[2:]))
			continue
		}
		flushList()

		if strings.TrimSpace(line) == "" {
			continue
		}
		if level, text, ok := heading(line); ok {
			nodes = append(nodes, Node{Kind: KindHeading, Level: level, Text: text})
			continue
		}
		if strings.HasPrefix(line, "> ") {
			nodes = append(nodes, Node{Kind: KindBlockquote, Text: strings.TrimSpace(line[2:])})
			continue
		}
		if m := reImageLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			if src := SafeURL(m[2]); src != "" {
				nodes = append(nodes, Node{Kind: KindImage, Alt: m[1], Src: html.UnescapeString(src)})
				continue
			}
		}
		nodes = append(nodes, Node{Kind: KindParagraph, HTML: Sanitize(FormatInline(strings.TrimSpace(line)))})
	}
	if inCode {
		flushCode()
	}
	flushList()

	if len(nodes) == 0 {
		return placeholder()
	}
	return nodes
}

func placeholder() []Node {
	return []Node{{Kind: KindParagraph, HTML: Placeholder}}
}

// heading matches "# ", "## " and "### ". Deeper levels are paragraphs.
func heading(line string) (int, string, bool) {
	for level := 3; level >= 1; level-- {
		prefix := strings.Repeat("#", level) + " "
		if strings.HasPrefix(line, prefix) {
			return level, strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return 0, "", false
}

// ApplyOutsideTags applies fn only to text segments outside HTML tags,
// so that formatting regexes never touch URLs inside href attributes, etc.
func ApplyOutsideTags(s string, fn func(string) string) string {
	var buf strings.Builder
	for len(s) > 0 {
		lt := strings.Index(s, "<")
		if lt < 0 {
			buf.WriteString(fn(s))
			break
		}
		if lt > 0 {
			buf.WriteString(fn(s[:lt]))
		}
		gt := strings.Index(s[lt:], ">")
		if gt < 0 {
			buf.WriteString(s[lt:])
			break
		}
		buf.WriteString(s[lt : lt+gt+1])
		s = s[lt+gt+1:]
	}
	return buf.String()
}

// FormatInline escapes s and applies bold, italic, inline code and links,
// in that order. The result is not yet sanitized.
func FormatInline(s string) string {
	escaped := html.EscapeString(s)
	escaped = reBold.ReplaceAllString(escaped, "<strong>$1</strong>")
	escaped = ApplyOutsideTags(escaped, func(seg string) string {
		return reItalic.ReplaceAllString(seg, "<em>$1</em>")
	})
	escaped = ApplyOutsideTags(escaped, func(seg string) string {
		return reInlineCode.ReplaceAllString(seg, "<code>$1</code>")
	})
	// Link text may already hold strong/em/code, so links match across tags.
	return reLink.ReplaceAllStringFunc(escaped, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		href := SafeURL(match[2])
		if href == "" {
			return match[1]
		}
		return `<a href="` + href + `" class="` + linkClass + `" target="_blank" rel="noopener noreferrer">` + match[1] + `</a>`
	})
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}

// WriteHTML writes the HTML for nodes to w. Heading, list and blockquote
// text is escaped; paragraph HTML was sanitized by Render.
func WriteHTML(w io.Writer, nodes []Node) error {
	var buf bytes.Buffer
	images := 0
	for _, n := range nodes {
		switch n.Kind {
		case KindHeading:
			tag := "h" + strconv.Itoa(n.Level)
			buf.WriteString("<" + tag + ">" + html.EscapeString(n.Text) + "</" + tag + ">")
		case KindParagraph:
			buf.WriteString("<p>" + n.HTML + "</p>")
		case KindList:
			buf.WriteString("<ul>")
			for _, item := range n.Items {
				buf.WriteString("<li>" + html.EscapeString(item) + "</li>")
			}
			buf.WriteString("</ul>")
		case KindBlockquote:
			buf.WriteString("<blockquote>" + html.EscapeString(n.Text) + "</blockquote>")
		case KindCodeBlock:
			if n.Language != "" {
				lang := html.EscapeString(n.Language)
				buf.WriteString(`<div class="code-block-wrapper"><span class="code-lang code-lang-` + lang + `">` + lang + `</span>`)
				buf.WriteString(`<pre class="code-block"><code class="language-` + lang + `">`)
				buf.WriteString(html.EscapeString(n.Code))
				buf.WriteString("</code></pre></div>")
			} else {
				buf.WriteString(`<pre class="code-block"><code>` + html.EscapeString(n.Code) + "</code></pre>")
			}
		case KindImage:
			images++
			loadAttr := `loading="lazy"`
			if images == 1 {
				loadAttr = `fetchpriority="high"`
			}
			buf.WriteString(`<img ` + loadAttr + ` alt="` + html.EscapeString(n.Alt) + `" src="` + html.EscapeString(n.Src) + `" decoding="async"/>`)
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Component returns a templ.Component that renders nodes.
func Component(nodes []Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return WriteHTML(w, nodes)
	})
}

// Markdown returns a templ.Component that renders content as HTML.
func Markdown(content string) templ.Component {
	return Component(Render(content))
}
