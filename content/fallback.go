package content

// Slugs of the built-in posts served when the content store is unavailable.
const (
	WelcomeSlug = "welcome-to-my-blog"
	GoGuideSlug = "getting-started-with-go"
)

func block(style, text string) map[string]any {
	return map[string]any{
		"_type": "block",
		"style": style,
		"children": []any{
			map[string]any{"_type": "span", "text": text},
		},
	}
}

func code(language, src string) map[string]any {
	return map[string]any{"_type": "code", "language": language, "code": src}
}

// fallbackDocuments returns fresh copies of the fallback corpus. They go
// through the same Normalizer as remote documents.
func fallbackDocuments() []RawDocument {
	return []RawDocument{
		{
			"_id":         "fallback-welcome",
			"title":       "Welcome to My Blog!",
			"slug":        map[string]any{"current": WelcomeSlug},
			"excerpt":     "A first post introducing what this blog is about and what to expect next.",
			"category":    CategoryPersonal,
			"tags":        []any{"welcome", "personal"},
			"featured":    true,
			"publishedAt": "2024-01-15T09:00:00Z",
			"content": []any{
				block("h2", "Hello and welcome"),
				block("normal", "This blog is where I write about **software**, *design*, and the things I learn while building for the web."),
				block("h3", "What to expect"),
				block("normal", "Expect deep dives into projects, short notes on tools, and the occasional [reading list](https://example.com/reading)."),
				block("blockquote", "Ship small, learn fast, and write it down."),
			},
		},
		{
			"_id":         "fallback-go-guide",
			"title":       "Getting Started with Go",
			"slug":        map[string]any{"current": GoGuideSlug},
			"excerpt":     "A short tutorial covering installation, modules, and a first HTTP server in Go.",
			"category":    CategoryTutorial,
			"tags":        []any{"go", "tutorial", "backend"},
			"featured":    false,
			"publishedAt": "2024-01-10T09:00:00Z",
			"content": []any{
				block("h2", "Install the toolchain"),
				block("normal", "Download the latest release and check it with `go version`. Every project starts with a module."),
				code("bash", "go mod init example.com/hello"),
				block("h2", "A first server"),
				block("normal", "The standard library ships a production-grade HTTP server:"),
				code("go", "http.HandleFunc(\"/\", func(w http.ResponseWriter, r *http.Request) {\n\tfmt.Fprintln(w, \"hello\")\n})\nlog.Fatal(http.ListenAndServe(\":8080\", nil))"),
				block("normal", "From here, add routing, templates, and tests as the project grows."),
			},
		},
	}
}
