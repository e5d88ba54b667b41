package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestProber() *Prober {
	return NewProber(5*time.Second, "Memoir-Test/0.1", 1_000_000, "", "", "")
}

func TestProber_Probe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html><head>
<title>  Example Corporation  </title>
<meta name="description" content="Example makes examples.">
</head><body><h1>hi</h1></body></html>`))
	}))
	defer server.Close()

	info, err := newTestProber().Probe(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if info.Title != "Example Corporation" {
		t.Errorf("unexpected title: %q", info.Title)
	}
	if info.Description != "Example makes examples." {
		t.Errorf("unexpected description: %q", info.Description)
	}
	if info.StatusCode != http.StatusOK {
		t.Errorf("unexpected status: %d", info.StatusCode)
	}
}

func TestProber_OpenGraphDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head>
<meta property="og:description" content="OG description.">
</head></html>`))
	}))
	defer server.Close()

	info, err := newTestProber().Probe(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Description != "OG description." {
		t.Errorf("expected og:description fallback, got %q", info.Description)
	}
}

func TestProber_RobotsDisallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	if _, err := newTestProber().Probe(context.Background(), server.URL+"/private/page"); err == nil {
		t.Error("expected error for robots-disallowed path")
	}
}

func TestProber_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	if _, err := newTestProber().Probe(context.Background(), server.URL); err == nil {
		t.Error("expected error for non-2xx status")
	}
}

func TestProber_RedirectCap(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		// Infinite redirect loop
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	if _, err := newTestProber().Probe(context.Background(), server.URL); err == nil {
		t.Error("expected error after redirect cap")
	}
}

func TestExtractHead(t *testing.T) {
	title, desc := extractHead(`<html><head><title>T</title><meta name="Description" content="D"></head></html>`)
	if title != "T" {
		t.Errorf("unexpected title: %q", title)
	}
	if desc != "D" {
		t.Errorf("unexpected description: %q", desc)
	}

	title, desc = extractHead("plain text, no markup")
	if title != "" || desc != "" {
		t.Errorf("expected empty results, got %q / %q", title, desc)
	}
}
