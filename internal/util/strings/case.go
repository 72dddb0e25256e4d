// Package strings holds the naming helpers used to derive table names, IRIs,
// wire names and GraphQL field names from Go identifiers.
package strings

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ToSnakeCase converts CamelCase to snake_case
// Handles acronyms properly (HTTPRequest -> http_request)
func ToSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(s)

	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				if unicode.IsLower(prev) || unicode.IsDigit(prev) {
					result.WriteRune('_')
				} else if i+1 < len(runes) && unicode.IsLower(runes[i+1]) && prev != '_' {
					result.WriteRune('_')
				}
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// ToCamelCase converts snake_case to lowerCamelCase (related_dummy -> relatedDummy)
func ToCamelCase(s string) string {
	parts := strings.Split(s, "_")
	var result strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 || result.Len() == 0 {
			result.WriteString(part)
			continue
		}
		result.WriteString(UcFirst(part))
	}
	return result.String()
}

// LcFirst lowercases the first rune
func LcFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

// UcFirst uppercases the first rune
func UcFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// FieldName returns the lowerCamel property name of an exported Go field.
// Leading acronyms are lowered as a whole (ID -> id, URLPath -> urlPath).
func FieldName(goName string) string {
	runes := []rune(goName)
	i := 0
	for i < len(runes) && unicode.IsUpper(runes[i]) {
		i++
	}
	switch {
	case i == 0:
		return goName
	case i == 1 || i == len(runes):
		return strings.ToLower(string(runes[:i])) + string(runes[i:])
	default:
		// keep the last upper rune as the start of the next word
		return strings.ToLower(string(runes[:i-1])) + string(runes[i-1:])
	}
}

var irregularPlurals = map[string]string{
	"person": "people",
	"child":  "children",
	"man":    "men",
	"woman":  "women",
}

// Pluralize returns a naive English plural of a lower or snake cased word.
// Only the last segment of a snake_case word is pluralized.
func Pluralize(s string) string {
	if s == "" {
		return s
	}
	prefix, word := "", s
	if idx := strings.LastIndexAny(s, "_ "); idx >= 0 {
		prefix, word = s[:idx+1], s[idx+1:]
	}

	lower := strings.ToLower(word)
	if plural, ok := irregularPlurals[lower]; ok {
		if word != lower {
			plural = UcFirst(plural)
		}
		return prefix + plural
	}

	switch {
	case strings.HasSuffix(lower, "ss"),
		strings.HasSuffix(lower, "sh"),
		strings.HasSuffix(lower, "ch"),
		strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "z"):
		return prefix + word + "es"
	case strings.HasSuffix(lower, "s"):
		return prefix + word
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !isVowel(rune(lower[len(lower)-2])):
		return prefix + word[:len(word)-1] + "ies"
	}
	return prefix + word + "s"
}

func isVowel(r rune) bool {
	return strings.ContainsRune("aeiou", r)
}
