package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rbelous/phishscope/internal/model"
)

const searchResultsPage = `<html><body>
<div class="result">
  <a class="result__a" href="https://reports.example.org/infosppl">infosppl.com scam report</a>
  <a class="result__snippet">Multiple users flagged infosppl.com as a phishing site.</a>
</div>
<div class="result">
  <a class="result__a" href="https://forum.example.net/thread/9">Unrelated knitting thread</a>
  <a class="result__snippet">Best yarn for winter sweaters.</a>
</div>
<div class="result">
  <a class="result__a" href="https://reports.example.org/infosppl">infosppl.com scam report</a>
  <a class="result__snippet">Duplicate hit from another query.</a>
</div>
</body></html>`

func newTestSearcher(endpoint string) *Searcher {
	return NewSearcher(model.FetchConfig{
		SearchEnabled:  true,
		SearchEndpoint: endpoint,
		UserAgent:      "test-agent",
	})
}

func TestSearcher_DomainContext(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("q"))
		w.Write([]byte(searchResultsPage))
	}))
	defer srv.Close()

	out, err := newTestSearcher(srv.URL).DomainContext(context.Background(), "www.infosppl.com")
	if err != nil {
		t.Fatal(err)
	}

	if len(queries) != len(reputationQueries) {
		t.Errorf("ran %d queries, want %d", len(queries), len(reputationQueries))
	}
	for _, q := range queries {
		if !strings.Contains(q, "infosppl.com") || strings.Contains(q, "www.") {
			t.Errorf("query %q should probe the bare domain", q)
		}
	}

	if !strings.Contains(out, "infosppl.com scam report") || !strings.Contains(out, "flagged infosppl.com") {
		t.Errorf("relevant snippet missing from context:\n%s", out)
	}
	if strings.Contains(out, "knitting") {
		t.Errorf("irrelevant snippet not filtered out:\n%s", out)
	}
	// Same href returned by several queries appears once.
	if strings.Count(out, "https://reports.example.org/infosppl") != 1 {
		t.Errorf("duplicate hrefs not deduplicated:\n%s", out)
	}
}

func TestSearcher_BackendFailureIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	out, err := newTestSearcher(srv.URL).DomainContext(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("backend failure should degrade silently, got %v", err)
	}
	if out != "" {
		t.Errorf("expected empty context, got %q", out)
	}
}

func TestRankSnippets(t *testing.T) {
	results := []searchResult{
		{Title: "weather today", Snippet: "sunny with clouds", Href: "a"},
		{Title: "example.com phishing warning", Snippet: "scam and fraud reports", Href: "b"},
		{Title: "review of example.com", Snippet: "looks legitimate", Href: "c"},
		{Title: "malware analysis", Snippet: "generic threat writeup", Href: "d"},
	}

	ranked := rankSnippets("example.com", results, 2)
	if len(ranked) != 2 {
		t.Fatalf("ranked = %d, want 2", len(ranked))
	}
	// Domain + multiple threat terms outranks everything else.
	if ranked[0].Href != "b" {
		t.Errorf("strongest snippet first, got %q", ranked[0].Title)
	}
	for _, r := range ranked {
		if r.Href == "a" {
			t.Error("snippet with no domain or threat mention kept")
		}
	}
}

func TestDomainForSearch(t *testing.T) {
	if got := domainForSearch("WWW.Example.COM"); got != "example.com" {
		t.Errorf("domainForSearch = %q", got)
	}
	if got := domainForSearch(""); got != "" {
		t.Errorf("empty host should stay empty, got %q", got)
	}
}
