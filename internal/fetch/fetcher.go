// Package fetch retrieves bounded visible page text to give the reasoner
// semantic context beyond the URL itself. Fetching is strictly best-effort:
// any failure means "no context", never a failed evaluation. The target may
// be hostile, so bodies are size-capped and scripts are never executed.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/rbelous/phishscope/internal/model"
	"github.com/rbelous/phishscope/internal/util"
)

// Fetcher retrieves visible page text for prompt context.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	maxWords   int
	robots     *RobotsChecker // Nil = robots.txt not consulted
}

// NewFetcher creates a fetcher from config.
func NewFetcher(cfg model.FetchConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 12 * time.Second
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes == 0 {
		maxBytes = 2_000_000
	}
	maxWords := cfg.MaxWords
	if maxWords == 0 {
		maxWords = 800
	}

	var robots *RobotsChecker
	if cfg.RespectRobots {
		robots = NewRobotsChecker(cfg.UserAgent, timeout)
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.ProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
		maxWords:  maxWords,
		robots:    robots,
	}
}

// PageText fetches the URL and returns its visible text, word-capped.
func (f *Fetcher) PageText(ctx context.Context, rawURL string) (string, error) {
	if f.robots != nil && !f.robots.CanFetch(ctx, rawURL) {
		return "", fmt.Errorf("disallowed by robots.txt")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.Contains(contentType, "text") {
		return "", fmt.Errorf("unsupported content type: %s", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := VisibleText(string(body))
	return capWords(text, f.maxWords), nil
}

// skipElements never contribute visible text.
var skipElements = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"meta": true, "link": true, "head": true, "iframe": true,
}

// VisibleText extracts the human-visible text of an HTML document.
func VisibleText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				sb.WriteString(trimmed)
				sb.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(sb.String())
}

// capWords truncates text to at most n whitespace-separated words.
func capWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[:n], " ")
}
