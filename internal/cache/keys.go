package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key hashes the JSON encoding of parts and prepends prefix.
// Parts must be JSON-encodable; map keys are sorted by encoding/json so
// equal option maps always produce the same key.
func Key(prefix string, parts ...interface{}) string {
	payload, err := json.Marshal(parts)
	if err != nil {
		payload = []byte(fmt.Sprintf("%#v", parts))
	}
	sum := sha256.Sum256(payload)
	return prefix + hex.EncodeToString(sum[:])
}
