// Package cachekey derives deterministic, content-addressable keys from
// export requests so repeat work can be detected across processes and time.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Derive produces a fixed-length hexadecimal SHA-256 digest of the given
// value's canonical serialization. The serialization is insensitive to map
// key ordering and treats null values the same as absent ones, so two
// semantically identical requests always derive the same key.
func Derive(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("cache key serialization failed: %w", err)
	}

	// Round-trip through encoding/json so every input collapses to the
	// same small set of types (map, slice, string, float64, bool, nil)
	// regardless of the Go type it started as.
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("cache key normalization failed: %w", err)
	}

	var b strings.Builder
	writeCanonical(&b, decoded)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:]), nil
}

// writeCanonical serializes a decoded JSON value into its canonical string
// form: object keys sorted lexicographically, null-valued keys omitted,
// array elements in original order, scalars as their JSON literal.
func writeCanonical(b *strings.Builder, v interface{}) {
	switch t := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k, val := range t {
			if val == nil {
				// null == absent
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(k)
			b.WriteString(`":`)
			writeCanonical(b, t[k])
		}
		b.WriteByte('}')

	case []interface{}:
		b.WriteByte('[')
		for i, el := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, el)
		}
		b.WriteByte(']')

	case nil:
		// Only reachable inside arrays; object nulls are dropped above.
		b.WriteString("null")

	default:
		// Scalars: strings, numbers, bools. json.Marshal of these types
		// cannot fail and yields a stable literal.
		raw, _ := json.Marshal(t)
		b.Write(raw)
	}
}
