package identifier

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/util/ordered"
)

var compositeKey = regexp.MustCompile(`(?:^|;)(\w+)=`)

// ParseCompositeIdentifier parses "a=1;c=2;d=2015-04-05". Values may
// contain semicolons as long as they are not followed by "key=".
func ParseCompositeIdentifier(s string) (map[string]interface{}, error) {
	matches := compositeKey.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 || matches[0][0] != 0 {
		return nil, fmt.Errorf("%w: %q is not a composite identifier", apierr.ErrInvalidIdentifier, s)
	}

	out := make(map[string]interface{}, len(matches))
	for i, m := range matches {
		end := len(s)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		out[s[m[2]:m[3]]] = s[m[1]:end]
	}
	return out, nil
}

// NormalizeCompositeIdentifier joins identifiers as "a=1;c=2"
func NormalizeCompositeIdentifier(identifiers *ordered.Map) string {
	parts := make([]string, 0, identifiers.Len())
	identifiers.Range(func(key string, value interface{}) bool {
		parts = append(parts, key+"="+FormatValue(value))
		return true
	})
	return strings.Join(parts, ";")
}

// FormatValue renders an identifier value for use in an IRI. Dates without
// a time of day render as 2006-01-02.
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		if v.Equal(v.Truncate(24*time.Hour)) && v.Location() == time.UTC {
			return v.Format("2006-01-02")
		}
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}
