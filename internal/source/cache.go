package source

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	cacheEnvVar   = "PAPERCHUNK_CACHE_DIR"
	cacheSubdir   = "paperchunk/pdfs"
	cacheTTL      = 24 * time.Hour
	partialSuffix = ".part"
	metaSuffix    = ".meta"
)

type downloadCache struct {
	dir       string
	client    *http.Client
	userAgent string
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	ContentType  string    `json:"contentType"`
	CachedAt     time.Time `json:"cachedAt"`
	Size         int64     `json:"size"`
}

// DefaultCacheDir is where downloads are kept unless PAPERCHUNK_CACHE_DIR or
// an explicit directory says otherwise.
func DefaultCacheDir() string {
	if dir := os.Getenv(cacheEnvVar); dir != "" {
		return dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(os.TempDir(), "paperchunk-cache")
	}
	return filepath.Join(base, cacheSubdir)
}

func newDownloadCache(dir string, client *http.Client, userAgent string) (*downloadCache, error) {
	if dir == "" {
		dir = DefaultCacheDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &downloadCache{dir: dir, client: client, userAgent: userAgent}, nil
}

// Fetch returns the path of a cached copy of url, downloading or refreshing
// it when needed. A stale copy is still served when the refresh fails.
func (c *downloadCache) Fetch(ctx context.Context, url string) (string, error) {
	key := cacheKey(url)
	bodyPath, metaPath, partialPath := c.pathsFor(key)

	if info, err := os.Stat(bodyPath); err == nil && time.Since(info.ModTime()) < cacheTTL && info.Size() > 0 {
		return bodyPath, nil
	}

	meta, _ := readMeta(metaPath)
	info, _ := os.Stat(bodyPath)
	path, err := c.download(ctx, url, bodyPath, metaPath, partialPath, meta, info)
	if err == nil {
		return path, nil
	}
	if info != nil && info.Size() > 0 {
		return bodyPath, nil
	}
	return "", err
}

func (c *downloadCache) download(ctx context.Context, url, bodyPath, metaPath, partialPath string, meta cacheMeta, current os.FileInfo) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if current != nil && current.Size() > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	var partialSize int64
	if info, err := os.Stat(partialPath); err == nil && info.Size() > 0 {
		partialSize = info.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", partialSize))
		if meta.ETag != "" {
			req.Header.Set("If-Range", meta.ETag)
		} else if meta.LastModified != "" {
			req.Header.Set("If-Range", meta.LastModified)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if current != nil && current.Size() > 0 {
			meta.CachedAt = time.Now().UTC()
			now := time.Now()
			_ = os.Chtimes(bodyPath, now, now)
			_ = writeMeta(metaPath, meta)
			return bodyPath, nil
		}
		return c.download(ctx, url, bodyPath, metaPath, partialPath, cacheMeta{}, nil)
	case http.StatusOK:
		return c.saveBody(resp, bodyPath, metaPath, partialPath, false)
	case http.StatusPartialContent:
		return c.saveBody(resp, bodyPath, metaPath, partialPath, partialSize > 0)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("download failed: %s (%s)", resp.Status, strings.TrimSpace(string(body)))
	}
}

func (c *downloadCache) saveBody(resp *http.Response, bodyPath, metaPath, partialPath string, appendExisting bool) (string, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendExisting {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(partialPath, flags, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(partialPath, bodyPath); err != nil {
		return "", err
	}

	meta := cacheMeta{
		URL:          resp.Request.URL.String(),
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		ContentType:  resp.Header.Get("Content-Type"),
		CachedAt:     time.Now().UTC(),
	}
	if info, err := os.Stat(bodyPath); err == nil {
		meta.Size = info.Size()
	}
	if err := writeMeta(metaPath, meta); err != nil {
		return "", err
	}
	return bodyPath, nil
}

func (c *downloadCache) pathsFor(key string) (string, string, string) {
	return filepath.Join(c.dir, key+".bin"), filepath.Join(c.dir, key+metaSuffix), filepath.Join(c.dir, key+partialSuffix)
}

// finalURL reports the URL the cached body was served from after redirects.
func (c *downloadCache) finalURL(url string) string {
	_, metaPath, _ := c.pathsFor(cacheKey(url))
	if meta, err := readMeta(metaPath); err == nil && meta.URL != "" {
		return meta.URL
	}
	return url
}

func cacheKey(url string) string {
	if id := ArxivID(url); id != "" && strings.Contains(url, "/pdf/") {
		return "arxiv-" + sanitizeKey(id)
	}
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

func sanitizeKey(value string) string {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, "/", "-")
	value = strings.ReplaceAll(value, ":", "-")
	value = strings.ReplaceAll(value, "..", "-")
	return value
}

func readMeta(path string) (cacheMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cacheMeta{}, err
	}
	var meta cacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

func writeMeta(path string, meta cacheMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
