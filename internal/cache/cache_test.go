package cache

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"

	"bookhunt/internal/testutil"
)

type testPayload struct {
	ISBN  string `json:"isbn"`
	Title string `json:"title"`
}

func setupTestCache(t *testing.T) *CacheDB {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	env := testutil.NewTestEnv(t)
	dbPath := filepath.Join(env.RootDir(), "test-cache.db")

	db, err := NewCacheDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to create cache database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close cache database: %v", err)
		}
	})

	for _, schema := range AllCacheSchemas {
		if err := db.CreateTable(schema); err != nil {
			t.Fatalf("Failed to create cache table: %v", err)
		}
	}

	viper.Set("cache.ttl", "1h")

	return db
}

func withGlobalCache(t *testing.T, db *CacheDB) {
	t.Helper()

	oldCache := globalCache
	globalCache = db
	globalCacheOnce = sync.Once{}
	globalCacheOnce.Do(func() {})

	t.Cleanup(func() {
		globalCache = oldCache
		globalCacheOnce = sync.Once{}
	})
}

func setCachedAt(t *testing.T, db *CacheDB, tableName, key string, at time.Time) {
	t.Helper()

	if _, err := db.db.Exec("UPDATE "+tableName+" SET cached_at = ? WHERE cache_key = ?", at.UTC(), key); err != nil {
		t.Fatalf("Failed to update cached_at: %v", err)
	}
}

func TestCacheSetAndGet(t *testing.T) {
	db := setupTestCache(t)

	if err := db.Set("aladin_cache", "9788936434120", `{"title":"test"}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, found, err := db.Get("aladin_cache", "9788936434120", time.Hour)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("expected cache hit")
	}
	if data != `{"title":"test"}` {
		t.Errorf("unexpected data: %s", data)
	}
}

func TestCacheGetMiss(t *testing.T) {
	db := setupTestCache(t)

	_, found, err := db.Get("aladin_cache", "no-such-key", time.Hour)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("expected cache miss")
	}
}

func TestCacheExpiry(t *testing.T) {
	db := setupTestCache(t)

	if err := db.Set("librarynet_cache", "141001:9788936434120", "Y"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	setCachedAt(t, db, "librarynet_cache", "141001:9788936434120", time.Now().Add(-2*time.Hour))

	_, found, err := db.Get("librarynet_cache", "141001:9788936434120", time.Hour)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("expected expired entry to be a miss")
	}
}

func TestCacheReplace(t *testing.T) {
	db := setupTestCache(t)

	if err := db.Set("aladin_cache", "key", "old"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := db.Set("aladin_cache", "key", "new"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, found, err := db.Get("aladin_cache", "key", time.Hour)
	if err != nil || !found {
		t.Fatalf("Get failed: %v found=%v", err, found)
	}
	if data != "new" {
		t.Errorf("expected replaced value, got %s", data)
	}
}

func TestCacheInvalidTableName(t *testing.T) {
	db := setupTestCache(t)

	if err := db.Set("aladin_cache; DROP TABLE aladin_cache", "key", "data"); err == nil {
		t.Error("expected error for invalid table name on Set")
	}
	if _, _, err := db.Get("not_a_table", "key", time.Hour); err == nil {
		t.Error("expected error for invalid table name on Get")
	}
	if _, err := db.InvalidateSource("not_a_table"); err == nil {
		t.Error("expected error for invalid table name on InvalidateSource")
	}
}

func TestInvalidateSource(t *testing.T) {
	db := setupTestCache(t)

	for _, key := range []string{"a", "b", "c"} {
		if err := db.Set("ebookportal_cache", key, "data"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	deleted, err := db.InvalidateSource("ebookportal_cache")
	if err != nil {
		t.Fatalf("InvalidateSource failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 rows deleted, got %d", deleted)
	}

	_, found, _ := db.Get("ebookportal_cache", "a", time.Hour)
	if found {
		t.Error("expected entries to be gone after invalidation")
	}
}

func TestGetOrFetchCachesResult(t *testing.T) {
	db := setupTestCache(t)
	withGlobalCache(t, db)

	fetchCount := 0
	fetch := func() (testPayload, error) {
		fetchCount++
		return testPayload{ISBN: "9788936434120", Title: "소년이 온다"}, nil
	}

	result, fromCache, err := GetOrFetch("aladin_cache", "9788936434120", fetch)
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if fromCache {
		t.Error("first call should not come from cache")
	}
	if result.Title != "소년이 온다" {
		t.Errorf("unexpected result: %+v", result)
	}

	result, fromCache, err = GetOrFetch("aladin_cache", "9788936434120", fetch)
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if !fromCache {
		t.Error("second call should come from cache")
	}
	if result.ISBN != "9788936434120" {
		t.Errorf("unexpected cached result: %+v", result)
	}
	if fetchCount != 1 {
		t.Errorf("expected 1 fetch, got %d", fetchCount)
	}
}

func TestGetOrFetchPropagatesFetchError(t *testing.T) {
	db := setupTestCache(t)
	withGlobalCache(t, db)

	fetchErr := errors.New("upstream unavailable")
	_, _, err := GetOrFetch("aladin_cache", "errkey", func() (testPayload, error) {
		return testPayload{}, fetchErr
	})
	if err == nil || !errors.Is(err, fetchErr) {
		t.Errorf("expected wrapped fetch error, got %v", err)
	}

	// Failed fetches must not be cached.
	_, found, _ := db.Get("aladin_cache", "errkey", time.Hour)
	if found {
		t.Error("failed fetch should not populate the cache")
	}
}

func TestSelectNegativeCacheTTL(t *testing.T) {
	selector := SelectNegativeCacheTTL(func(p testPayload) bool {
		return p.ISBN == ""
	})

	if got := selector(testPayload{ISBN: "123"}); got != DefaultCacheTTL {
		t.Errorf("expected default TTL for a hit, got %v", got)
	}
	if got := selector(testPayload{}); got != NegativeCacheTTL {
		t.Errorf("expected negative TTL for a miss, got %v", got)
	}
}

func TestConfiguredTTL(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	if got := configuredTTL(); got != DefaultCacheTTL {
		t.Errorf("expected default TTL when unset, got %v", got)
	}

	viper.Set("cache.ttl", "15m")
	if got := configuredTTL(); got != 15*time.Minute {
		t.Errorf("expected 15m, got %v", got)
	}

	viper.Set("cache.ttl", "bogus")
	if got := configuredTTL(); got != DefaultCacheTTL {
		t.Errorf("expected default TTL on parse failure, got %v", got)
	}
}
