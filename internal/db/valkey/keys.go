package valkey

import (
	"net/url"

	"github.com/makoye224/cwru-courses-backend/internal/db"
)

// Reserved hash fields. Converter attributes never start with "__".
const (
	fieldName    = "__name"
	fieldCode    = "__code"
	fieldVersion = "__version"
)

// itemKey builds {prefix}course:<name>:<code>. Both parts are query-escaped,
// so ':' and glob metacharacters in user input cannot collide with the separators.
func (s *Store) itemKey(k db.Key) string {
	return s.prefix + "course:" + url.QueryEscape(k.Name) + ":" + url.QueryEscape(k.Code)
}

// allKey is the set of every item key. Listing it with SSCAN is routed by the
// prefix hash tag to the shard that owns the items; a keyless SCAN is not.
func (s *Store) allKey() string {
	return s.prefix + "idx:all"
}

// indexPrefix is completed with the indexed value inside the Lua scripts.
func (s *Store) indexPrefix(index string) string {
	return s.prefix + "idx:" + index + ":"
}

func (s *Store) indexKey(index, value string) string {
	return s.indexPrefix(index) + value
}
