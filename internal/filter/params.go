package filter

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/util/ordered"
)

// ParseQuery parses a raw query string into nested ordered maps, keeping
// the parameter order and the bracket syntax:
//
//	order[title]=asc&order[id]=desc&tags[]=a&tags[]=b&name=foo
//
// becomes {order: {title: asc, id: desc}, tags: [a, b], name: foo}.
// Dots in keys are kept, so author.name stays a nested property path.
func ParseQuery(rawQuery string) (*ordered.Map, error) {
	out := ordered.New()
	if rawQuery == "" {
		return out, nil
	}

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed query parameter %q", apierr.ErrInvalidArgument, rawKey)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed value of query parameter %q", apierr.ErrInvalidArgument, key)
		}

		path, err := splitKey(key)
		if err != nil {
			return nil, err
		}
		if err := insert(out, path, value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// splitKey turns a[b][c][] into [a b c ""]
func splitKey(key string) ([]string, error) {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return []string{key}, nil
	}

	path := []string{key[:open]}
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return nil, fmt.Errorf("%w: malformed query parameter %q", apierr.ErrInvalidArgument, key)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, fmt.Errorf("%w: malformed query parameter %q", apierr.ErrInvalidArgument, key)
		}
		path = append(path, rest[1:end])
		rest = rest[end+1:]
	}
	return path, nil
}

func insert(m *ordered.Map, path []string, value string) error {
	key := path[0]
	if len(path) == 1 {
		m.Set(key, value)
		return nil
	}

	if path[1] == "" {
		existing, _ := m.Get(key)
		list, _ := existing.([]interface{})
		m.Set(key, append(list, value))
		return nil
	}

	existing, ok := m.Get(key)
	child, isMap := existing.(*ordered.Map)
	if !ok || !isMap {
		child = ordered.New()
		m.Set(key, child)
	}
	return insert(child, path[1:], value)
}
