package cache

// SQL schemas for cache tables. All cache tables use "cache_key" as the
// primary key column for consistency.

// AladinCacheSchema caches bookstore API lookups, keyed by ISBN or the
// normalized title query.
const AladinCacheSchema = `
CREATE TABLE IF NOT EXISTS aladin_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_aladin_cached_at ON aladin_cache(cached_at);
`

// LibraryNetCacheSchema caches per-library holding lookups, keyed by
// "libCode:isbn".
const LibraryNetCacheSchema = `
CREATE TABLE IF NOT EXISTS librarynet_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_librarynet_cached_at ON librarynet_cache(cached_at);
`

// LibraryInfoCacheSchema caches library display names keyed by library
// code. Names change essentially never, so these entries live long.
const LibraryInfoCacheSchema = `
CREATE TABLE IF NOT EXISTS libraryinfo_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_libraryinfo_cached_at ON libraryinfo_cache(cached_at);
`

// EbookPortalCacheSchema caches scraped portal search results, keyed by
// the keyword query.
const EbookPortalCacheSchema = `
CREATE TABLE IF NOT EXISTS ebookportal_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ebookportal_cached_at ON ebookportal_cache(cached_at);
`

// RidibooksCacheSchema caches storefront search API pages, keyed by the
// keyword query.
const RidibooksCacheSchema = `
CREATE TABLE IF NOT EXISTS ridibooks_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ridibooks_cached_at ON ridibooks_cache(cached_at);
`

// AllCacheSchemas contains all cache table schemas for easy initialization.
var AllCacheSchemas = []string{
	AladinCacheSchema,
	LibraryNetCacheSchema,
	LibraryInfoCacheSchema,
	EbookPortalCacheSchema,
	RidibooksCacheSchema,
}

// ValidCacheTableNames is the whitelist of allowed cache table names,
// used to prevent SQL injection when interpolating table names.
var ValidCacheTableNames = map[string]bool{
	"aladin_cache":      true,
	"librarynet_cache":  true,
	"libraryinfo_cache": true,
	"ebookportal_cache": true,
	"ridibooks_cache":   true,
}
