// Package reference loads the optional background document an episode is
// grounded on, from a local file or an http(s) URL.
package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"podcaster/internal/fileutil"
)

// maxDocumentBytes is the largest remote document accepted.
const maxDocumentBytes = 4 << 20

// Loader reads reference documents. Remote documents are cached on disk
// and reused until they are older than maxAge.
type Loader struct {
	cacheDir   string
	maxAge     time.Duration
	maxBytes   int64
	httpClient *http.Client
}

type cachedDocument struct {
	URL         string    `json:"url"`
	LastUpdated time.Time `json:"last_updated"`
	Content     string    `json:"content"`
}

func NewLoader(cacheDir string, maxAge time.Duration) *Loader {
	return &Loader{
		cacheDir: cacheDir,
		maxAge:   maxAge,
		maxBytes: maxDocumentBytes,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsURL reports whether source should be fetched over HTTP.
func IsURL(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Load returns the document named by source. An empty source yields an
// empty document.
func (l *Loader) Load(ctx context.Context, source string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", nil
	}
	if !IsURL(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return "", fmt.Errorf("read reference document: %w", err)
		}
		return string(data), nil
	}
	return l.loadURL(ctx, source)
}

func (l *Loader) loadURL(ctx context.Context, url string) (string, error) {
	log := logrus.WithField("url", url)
	path := l.cachePath(url)

	if l.isFresh(path) {
		if doc, err := l.loadFromCache(path); err == nil {
			log.Debug("using cached reference document")
			return doc.Content, nil
		}
	}

	content, err := l.fetch(ctx, url)
	if err != nil {
		// Fall back to a stale copy rather than dropping the document.
		log.WithError(err).Warn("reference fetch failed, trying stale cache")
		if doc, cacheErr := l.loadFromCache(path); cacheErr == nil {
			return doc.Content, nil
		}
		return "", fmt.Errorf("fetch reference document and no cache available: %w", err)
	}

	if err := l.saveToCache(path, cachedDocument{URL: url, LastUpdated: time.Now(), Content: content}); err != nil {
		log.WithError(err).Warn("failed to cache reference document")
	}
	return content, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned status %d for %s", resp.StatusCode, url)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > l.maxBytes {
		return "", fmt.Errorf("reference document at %s is larger than %d bytes", url, l.maxBytes)
	}
	logrus.WithFields(logrus.Fields{"url": url, "bytes": len(body)}).Info("fetched reference document")
	return string(body), nil
}

// cachePath derives a stable file name from the URL.
func (l *Loader) cachePath(url string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(url))
	return filepath.Join(l.cacheDir, "reference_"+id.String()+".json")
}

func (l *Loader) isFresh(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < l.maxAge
}

func (l *Loader) loadFromCache(path string) (cachedDocument, error) {
	var doc cachedDocument
	f, err := os.Open(path)
	if err != nil {
		return doc, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return doc, fmt.Errorf("failed to decode cache file: %w", err)
	}
	return doc, nil
}

func (l *Loader) saveToCache(path string, doc cachedDocument) error {
	return fileutil.WriteAtomic(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	})
}
