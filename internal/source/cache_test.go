package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func TestDownloadCacheReusesFreshFile(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Etag", `"v1"`)
		_, _ = w.Write([]byte("%PDF-1.4\nHello"))
	}))
	t.Cleanup(server.Close)

	cache, err := newDownloadCache(t.TempDir(), server.Client(), DefaultUserAgent)
	if err != nil {
		t.Fatalf("newDownloadCache: %v", err)
	}
	ctx := context.Background()

	path, err := cache.Fetch(ctx, server.URL+"/pdf/2101.00001.pdf")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cached file missing: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected single download, got %d hits", hits)
	}

	path2, err := cache.Fetch(ctx, server.URL+"/pdf/2101.00001.pdf")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if path != path2 {
		t.Fatalf("paths differ: %s vs %s", path, path2)
	}
	if hits != 1 {
		t.Fatalf("cache miss triggered download, total hits %d", hits)
	}
}

func TestDownloadCacheRespectsConditionalRefresh(t *testing.T) {
	var conditional bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v2"` {
			conditional = true
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Etag", `"v2"`)
		_, _ = w.Write([]byte("%PDF-1.4\nUpdated"))
	}))
	t.Cleanup(server.Close)

	cache, err := newDownloadCache(t.TempDir(), server.Client(), "")
	if err != nil {
		t.Fatalf("newDownloadCache: %v", err)
	}
	ctx := context.Background()

	path, err := cache.Fetch(ctx, server.URL+"/paper.pdf")
	if err != nil {
		t.Fatalf("initial fetch: %v", err)
	}

	// Age the file to force a conditional request.
	old := time.Now().Add(-(cacheTTL + time.Hour))
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	path2, err := cache.Fetch(ctx, server.URL+"/paper.pdf")
	if err != nil {
		t.Fatalf("conditional fetch: %v", err)
	}
	if !conditional {
		t.Fatal("expected a conditional request for the stale copy")
	}
	data, err := os.ReadFile(path2)
	if err != nil || string(data) != "%PDF-1.4\nUpdated" {
		t.Fatalf("unexpected cached body %q (err %v)", data, err)
	}
}

func TestDownloadCacheResumesPartialDownload(t *testing.T) {
	var rangeHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rangeHeader = r.Header.Get("Range")
		w.Header().Set("Etag", `"resume"`)
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("world"))
	}))
	t.Cleanup(server.Close)

	cache, err := newDownloadCache(t.TempDir(), server.Client(), "")
	if err != nil {
		t.Fatalf("newDownloadCache: %v", err)
	}
	ctx := context.Background()
	url := server.URL + "/pdf/2301.00001.pdf"
	bodyPath, metaPath, partPath := cache.pathsFor(cacheKey(url))

	if err := os.WriteFile(partPath, []byte("hello "), 0o644); err != nil {
		t.Fatalf("write partial: %v", err)
	}
	if err := writeMeta(metaPath, cacheMeta{ETag: `"resume"`}); err != nil {
		t.Fatalf("write meta: %v", err)
	}

	path, err := cache.Fetch(ctx, url)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if path != bodyPath {
		t.Fatalf("unexpected path: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cached body: %v", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("resume failed, got %q", string(data))
	}
	if rangeHeader != fmt.Sprintf("bytes=%d-", len("hello ")) {
		t.Fatalf("expected range header, got %q", rangeHeader)
	}
	if _, err := os.Stat(partPath); err == nil || !os.IsNotExist(err) {
		t.Fatalf("partial file should be removed, err=%v", err)
	}
}

func TestDownloadCacheSendsUserAgent(t *testing.T) {
	var agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	t.Cleanup(server.Close)

	cache, err := newDownloadCache(t.TempDir(), server.Client(), DefaultUserAgent)
	if err != nil {
		t.Fatalf("newDownloadCache: %v", err)
	}
	if _, err := cache.Fetch(context.Background(), server.URL+"/a.pdf"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if agent != DefaultUserAgent {
		t.Fatalf("User-Agent = %q", agent)
	}
}

func TestDownloadCacheReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	cache, err := newDownloadCache(t.TempDir(), server.Client(), "")
	if err != nil {
		t.Fatalf("newDownloadCache: %v", err)
	}
	_, err = cache.Fetch(context.Background(), server.URL+"/missing.pdf")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestDefaultCacheDirHonoursEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(cacheEnvVar, dir)
	if got := DefaultCacheDir(); got != dir {
		t.Fatalf("DefaultCacheDir() = %q, want %q", got, dir)
	}
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	if key := cacheKey("https://arxiv.org/pdf/2101.00001.pdf"); key != "arxiv-2101.00001" {
		t.Fatalf("arXiv cache key = %q", key)
	}
	key := cacheKey("https://example.com/foo.pdf")
	if len(key) == 0 {
		t.Fatal("cache key empty")
	}
	if strings.Contains(key, "/") {
		t.Fatalf("cache key should be sanitized, got %q", key)
	}
}
