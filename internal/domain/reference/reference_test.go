package reference

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoadEmptySource(t *testing.T) {
	doc, err := NewLoader(t.TempDir(), time.Hour).Load(context.Background(), "  ")
	if err != nil || doc != "" {
		t.Fatalf("got %q, %v", doc, err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte("# Background\nTides are driven by the moon."), 0644); err != nil {
		t.Fatal(err)
	}
	doc, err := NewLoader(t.TempDir(), time.Hour).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc != "# Background\nTides are driven by the moon." {
		t.Fatalf("unexpected doc %q", doc)
	}

	if _, err := NewLoader(t.TempDir(), time.Hour).Load(context.Background(), path+".missing"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadURLUsesFreshCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("remote background"))
	}))
	defer server.Close()

	loader := NewLoader(t.TempDir(), time.Hour)
	for i := 0; i < 2; i++ {
		doc, err := loader.Load(context.Background(), server.URL+"/doc")
		if err != nil {
			t.Fatalf("Load #%d: %v", i, err)
		}
		if doc != "remote background" {
			t.Fatalf("unexpected doc %q", doc)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one fetch, got %d", hits.Load())
	}
}

func TestLoadURLFallsBackToStaleCache(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("first copy"))
	}))
	defer server.Close()

	// Zero max age: every cached entry is stale.
	loader := NewLoader(t.TempDir(), 0)
	if _, err := loader.Load(context.Background(), server.URL); err != nil {
		t.Fatalf("initial Load: %v", err)
	}

	fail.Store(true)
	doc, err := loader.Load(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("stale Load: %v", err)
	}
	if doc != "first copy" {
		t.Fatalf("unexpected doc %q", doc)
	}
}

func TestLoadURLWithoutCacheFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	if _, err := NewLoader(t.TempDir(), time.Hour).Load(context.Background(), server.URL); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadURLRejectsOversizedDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 17)))
	}))
	defer server.Close()

	loader := NewLoader(t.TempDir(), time.Hour)
	loader.maxBytes = 16
	if _, err := loader.Load(context.Background(), server.URL); err == nil || !strings.Contains(err.Error(), "larger than 16 bytes") {
		t.Fatalf("expected size error, got %v", err)
	}
	if _, err := os.Stat(loader.cachePath(server.URL)); !os.IsNotExist(err) {
		t.Fatalf("oversized document must not be cached, stat err = %v", err)
	}

	// Exactly at the cap is fine.
	loader.maxBytes = 17
	doc, err := loader.Load(context.Background(), server.URL)
	if err != nil || len(doc) != 17 {
		t.Fatalf("Load at cap: %q, %v", doc, err)
	}
}

func TestIsURL(t *testing.T) {
	cases := map[string]bool{
		"https://example.com/a": true,
		"HTTP://example.com":    true,
		"docs/background.md":    false,
		"ftp://example.com":     false,
	}
	for in, want := range cases {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}
