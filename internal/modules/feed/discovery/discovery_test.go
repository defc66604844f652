package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/domain"
	sharederrors "github.com/reshetovitsme/nostr-feed-reader/internal/shared/errors"
)

const discoverableRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Direct Feed</title></channel></rss>`

func TestDiscover_RejectsNonHTTPInput(t *testing.T) {
	l := NewLocator()

	for _, input := range []string{"ftp://example.com/feed", "not a url", "file:///etc/passwd", ""} {
		_, err := l.Discover(context.Background(), input)
		if !errors.Is(err, sharederrors.ErrInvalidInput) {
			t.Errorf("Discover(%q) error = %v, want ErrInvalidInput", input, err)
		}
	}
}

func TestDiscover_DirectFeedSingleRequest(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, discoverableRSS)
	}))
	defer server.Close()

	l := NewLocator()
	result, err := l.Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Found {
		t.Fatal("expected found")
	}
	if result.Kind != domain.FeedKindRss {
		t.Errorf("kind = %s", result.Kind)
	}
	if result.FeedURL != server.URL {
		t.Errorf("feed url = %q", result.FeedURL)
	}
	if result.Title != "Direct Feed" {
		t.Errorf("title = %q", result.Title)
	}
	// Stages 2 and 3 must never run after a stage-1 hit
	if n := requests.Load(); n != 1 {
		t.Errorf("expected exactly 1 request, got %d", n)
	}
}

func TestDiscover_HTMLAlternateLink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head>
			<link rel="stylesheet" href="/style.css">
			<link rel="alternate" type="application/rss+xml" href="/feed.xml">
			<link rel="alternate" type="application/atom+xml" href="/atom.xml">
		</head><body>welcome</body></html>`)
	})
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, discoverableRSS)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	l := NewLocator()
	result, err := l.Discover(context.Background(), server.URL+"/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Found {
		t.Fatal("expected found")
	}
	// First matching alternate link in document order, resolved absolute
	if result.FeedURL != server.URL+"/feed.xml" {
		t.Errorf("feed url = %q", result.FeedURL)
	}
}

func TestDiscover_UnconfirmedAlternateLinkDoesNotCount(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		// Advertised feed is a lie: it serves HTML
		fmt.Fprint(w, `<html><head><link rel="alternate" type="application/rss+xml" href="/fake.xml"></head></html>`)
	})
	mux.HandleFunc("/fake.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>not a feed</html>")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	l := NewLocator()
	result, err := l.Discover(context.Background(), server.URL+"/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Found {
		t.Fatalf("unvalidated candidate must not count, got %+v", result)
	}
}

func TestDiscover_CommonPaths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>no links here</html>")
	})
	mux.HandleFunc("/atom.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, `<feed xmlns="http://www.w3.org/2005/Atom"><title>Probed</title></feed>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	l := NewLocator()
	result, err := l.Discover(context.Background(), server.URL+"/some/deep/page")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Found {
		t.Fatal("expected found via common paths")
	}
	if result.FeedURL != server.URL+"/atom.xml" {
		t.Errorf("feed url = %q", result.FeedURL)
	}
	if result.Kind != domain.FeedKindAtom {
		t.Errorf("kind = %s", result.Kind)
	}
}

func TestDiscover_ExhaustedCascade(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	l := NewLocator()
	result, err := l.Discover(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("exhaustion is a negative result, not an error: %v", err)
	}
	if result.Found {
		t.Fatal("expected not found")
	}
	if result.Message == "" {
		t.Error("expected a descriptive message")
	}
}
