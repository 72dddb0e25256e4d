package jsonapi

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/Foxprodev/core/internal/serializer"
)

// fieldsPattern matches query parameters like fields[typename]
var fieldsPattern = regexp.MustCompile(`^fields\[([^\]]+)\]$`)

// ParseInclude parses the include query parameter into relationship paths.
// Example: ?include=author,comments.author returns ["author", "comments.author"]
func ParseInclude(r *http.Request) []string {
	return splitList(r.URL.Query().Get("include"))
}

// ParseFields parses the fields query parameters into field names by
// resource type.
// Example: ?fields[Book]=title,author&fields[Author]=name
// Returns: {"Book": ["title", "author"], "Author": ["name"]}
func ParseFields(r *http.Request) map[string][]string {
	result := make(map[string][]string)
	for key, values := range r.URL.Query() {
		matches := fieldsPattern.FindStringSubmatch(key)
		if len(matches) != 2 {
			continue
		}
		if len(values) == 0 {
			result[matches[1]] = []string{}
			continue
		}
		result[matches[1]] = splitList(values[0])
	}
	return result
}

// ApplyRequest copies the include paths, sparse fieldsets and request URI
// of r into sctx
func ApplyRequest(r *http.Request, sctx *serializer.Context) {
	sctx.Include = ParseInclude(r)
	sctx.Fields = ParseFields(r)
	if sctx.RequestURI == "" {
		sctx.RequestURI = r.URL.RequestURI()
	}
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
