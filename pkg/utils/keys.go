package utils

import "strings"

// CacheKey builds a stable cache key from namespace parts, e.g.
// CacheKey("summary", "week", "2025-W48").
func CacheKey(parts ...string) string {
	return strings.Join(parts, ":")
}
