// Package cachekey derives deterministic cache keys from call signatures.
package cachekey

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"
)

// Generate builds a stable key for one logical operation call.
//
// Identical calls always produce identical keys regardless of keyword
// argument order; any changed argument value changes the key. The canonical
// form is hashed with xxh3-128, which is fast and collision-resistant enough
// for cache addressing without being cryptographic.
func Generate(operation string, args []any, kwargs map[string]any) string {
	var sb strings.Builder
	sb.WriteString(operation)
	sb.WriteByte('\x00')

	for _, arg := range args {
		sb.WriteString(canonical(arg))
		sb.WriteByte('\x00')
	}

	keys := make([]string, 0, len(kwargs))
	for key := range kwargs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(canonical(kwargs[key]))
		sb.WriteByte('\x00')
	}

	sum := xxh3.Hash128([]byte(sb.String())).Bytes()
	return fmt.Sprintf("%s:%x", operation, sum)
}

// canonical serializes a value with lexicographically sorted object keys.
// encoding/json already sorts map keys, which keeps nested maps stable.
func canonical(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		// Unmarshalable values (channels, funcs) have no business in cache
		// keys; fall back to the fmt representation rather than panicking.
		return fmt.Sprintf("%#v", value)
	}
	return string(data)
}
