package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newCountingServer(t *testing.T, body string, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestSourceFetchesAndCaches(t *testing.T) {
	server, hits := newCountingServer(t, issTLE, http.StatusOK)
	dir := t.TempDir()

	src := NewSource(SourceConfig{
		URL:      server.URL,
		CacheDir: dir,
		Kind:     "tle",
		Ext:      ".txt",
		MaxAge:   time.Hour,
	}, testLogger)

	first, err := src.Get(context.Background())
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}
	if first.Origin != OriginNetwork {
		t.Errorf("first origin = %s, want %s", first.Origin, OriginNetwork)
	}

	second, err := src.Get(context.Background())
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if second.Origin != OriginCache {
		t.Errorf("second origin = %s, want %s", second.Origin, OriginCache)
	}
	if string(second.Data) != issTLE {
		t.Errorf("cached body mismatch")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}
}

func TestSourceExpiredCacheRefetches(t *testing.T) {
	server, hits := newCountingServer(t, issTLE, http.StatusOK)

	src := NewSource(SourceConfig{URL: server.URL, CacheDir: t.TempDir(), Kind: "tle", Ext: ".txt", MaxAge: time.Hour}, testLogger)
	if _, err := src.Get(context.Background()); err != nil {
		t.Fatal(err)
	}

	src.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	res, err := src.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Origin != OriginNetwork {
		t.Errorf("origin = %s, want %s", res.Origin, OriginNetwork)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hit %d times, want 2", got)
	}
}

func TestSourceZeroMaxAgeAlwaysFetches(t *testing.T) {
	server, hits := newCountingServer(t, issTLE, http.StatusOK)

	src := NewSource(SourceConfig{URL: server.URL, CacheDir: t.TempDir(), Kind: "tle", Ext: ".txt"}, testLogger)
	for i := 0; i < 3; i++ {
		if _, err := src.Get(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("server hit %d times, want 3", got)
	}
}

// TestSourceFetchErrorNoStaleFallback verifies an expired cache copy is not
// served when the network fetch fails.
func TestSourceFetchErrorNoStaleFallback(t *testing.T) {
	dir := t.TempDir()
	good, _ := newCountingServer(t, issTLE, http.StatusOK)

	src := NewSource(SourceConfig{URL: good.URL, CacheDir: dir, Kind: "tle", Ext: ".txt", MaxAge: time.Minute}, testLogger)
	if _, err := src.Get(context.Background()); err != nil {
		t.Fatal(err)
	}

	good.Close()
	src.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, err := src.Get(context.Background()); err == nil {
		t.Fatal("expected fetch error, got nil")
	}
}

// TestSourceFutureCacheRefetches covers clock skew: a copy stamped after
// now is never treated as fresh.
func TestSourceFutureCacheRefetches(t *testing.T) {
	server, hits := newCountingServer(t, issTLE, http.StatusOK)
	src := NewSource(SourceConfig{URL: server.URL, CacheDir: t.TempDir(), Kind: "tle", Ext: ".txt", MaxAge: time.Hour}, testLogger)
	if err := src.cache.Write([]byte("from the future"), time.Now().Add(30*time.Minute)); err != nil {
		t.Fatal(err)
	}

	res, err := src.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Origin != OriginNetwork || string(res.Data) != issTLE {
		t.Errorf("Get() = %q from %s, want network copy", res.Data, res.Origin)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}
}

func TestSourceCacheKeyedByURL(t *testing.T) {
	a := cachePrefix("tle", "https://example.com/a.txt")
	b := cachePrefix("tle", "https://example.com/b.txt")
	if a == b {
		t.Errorf("different URLs share cache prefix %q", a)
	}
	if a != cachePrefix("tle", "https://example.com/a.txt") {
		t.Error("cache prefix is not stable")
	}
}

func TestSourceCachedIgnoresAge(t *testing.T) {
	server, hits := newCountingServer(t, issTLE, http.StatusOK)
	cfg := SourceConfig{URL: server.URL, CacheDir: t.TempDir(), Kind: "tle", Ext: ".txt", MaxAge: time.Minute}

	src := NewSource(cfg, testLogger)
	if _, err := src.Cached(); err == nil {
		t.Fatal("expected error before anything is cached")
	}
	if _, err := src.Get(context.Background()); err != nil {
		t.Fatal(err)
	}

	later := NewSource(cfg, testLogger)
	later.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	res, err := later.Cached()
	if err != nil {
		t.Fatalf("Cached: %v", err)
	}
	if res.Origin != OriginCache || string(res.Data) != issTLE {
		t.Errorf("Cached() = %q from %s", res.Data, res.Origin)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}

	if _, err := NewSource(SourceConfig{URL: server.URL}, testLogger).Cached(); err == nil {
		t.Error("expected error without a cache directory")
	}
}
