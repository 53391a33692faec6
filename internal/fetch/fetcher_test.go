package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rbelous/phishscope/internal/model"
)

func TestVisibleText_StripsNonContent(t *testing.T) {
	page := `<html><head><title>t</title><style>body{color:red}</style></head>
	<body>
		<script>alert("xss")</script>
		<h1>Verify your account</h1>
		<noscript>enable js</noscript>
		<p>Enter your password to continue</p>
	</body></html>`

	text := VisibleText(page)
	if !strings.Contains(text, "Verify your account") || !strings.Contains(text, "Enter your password") {
		t.Errorf("visible text missing content: %q", text)
	}
	for _, forbidden := range []string{"alert", "color:red", "enable js"} {
		if strings.Contains(text, forbidden) {
			t.Errorf("visible text contains %q", forbidden)
		}
	}
}

func TestCapWords(t *testing.T) {
	text := strings.Repeat("word ", 100)
	capped := capWords(text, 10)
	if got := len(strings.Fields(capped)); got != 10 {
		t.Errorf("capped to %d words, want 10", got)
	}
}

func TestPageText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>Urgent: confirm your identity</p></body></html>"))
	}))
	defer srv.Close()

	cfg := model.DefaultConfig().Fetch
	cfg.RespectRobots = true
	f := NewFetcher(cfg)

	text, err := f.PageText(context.Background(), srv.URL+"/login")
	if err != nil {
		t.Fatalf("PageText: %v", err)
	}
	if !strings.Contains(text, "confirm your identity") {
		t.Errorf("text = %q", text)
	}
}

func TestPageText_RespectsRobots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>secret</body></html>"))
	}))
	defer srv.Close()

	cfg := model.DefaultConfig().Fetch
	cfg.RespectRobots = true
	f := NewFetcher(cfg)

	if _, err := f.PageText(context.Background(), srv.URL+"/private/page"); err == nil {
		t.Error("expected robots.txt to block the fetch")
	}
	if _, err := f.PageText(context.Background(), srv.URL+"/public"); err != nil {
		t.Errorf("public path blocked: %v", err)
	}
}

func TestPageText_RejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{0xde, 0xad})
	}))
	defer srv.Close()

	cfg := model.DefaultConfig().Fetch
	cfg.RespectRobots = false
	f := NewFetcher(cfg)

	if _, err := f.PageText(context.Background(), srv.URL); err == nil {
		t.Error("expected content-type rejection")
	}
}
