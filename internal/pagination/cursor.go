package pagination

import (
	"encoding/base64"
	"strconv"
)

// EncodeCursor returns the opaque cursor of an item offset
func EncodeCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// DecodeCursor reads an offset back from a cursor. Cursors that are not
// base64 encoded integers are rejected.
func DecodeCursor(v interface{}) (int, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}
