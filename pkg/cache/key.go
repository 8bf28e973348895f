package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached response by path and query. The filter, page and
// pageSize parameters are all part of the query, so every distinct page of
// every distinct filter caches separately.
type Key struct {
	// Path is the API path (e.g. "market-data/v3/value/current/symbol")
	Path string

	// Query holds the request's query parameters
	Query url.Values
}

// String generates a deterministic cache key string.
// Format: spgci:path:param1=val1:param2=val2
//
// Example:
//
//	spgci:market-data/v3/value/current/symbol:page=1:pageSize=1000
func (k Key) String() string {
	parts := []string{"spgci"}

	path := strings.Trim(k.Path, "/")
	if path != "" {
		parts = append(parts, path)
	}

	// Query params sorted for determinism.
	if len(k.Query) > 0 {
		keys := make([]string, 0, len(k.Query))
		for key := range k.Query {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.Query.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
