package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/rbelous/phishscope/internal/model"
	"github.com/rbelous/phishscope/internal/util"
)

// defaultSearchEndpoint is the HTML (non-JS) search frontend queried for
// reputation snippets.
const defaultSearchEndpoint = "https://html.duckduckgo.com/html/"

// defaultMaxSnippets bounds how many snippets enter the prompt.
const defaultMaxSnippets = 6

// reputationQueries are the probe templates run against the search backend,
// %s is the bare domain. Each query is independent and best-effort.
var reputationQueries = []string{
	"%s review",
	"%s is a phishing website",
	"%q scam complaints",
}

// threatTerms mark a snippet as relevant to the reputation question.
var threatTerms = []string{
	"phishing", "scam", "fraud", "malware", "complaint", "fake",
	"suspicious", "blacklist", "threat", "stolen", "impersonat",
}

// searchResult is one parsed hit from the search backend.
type searchResult struct {
	Title   string
	Href    string
	Snippet string
}

// Searcher retrieves web reputation snippets about a domain to give the
// reasoner off-page context. Like page fetching it is strictly best-effort:
// a failed query is skipped, an empty result set is not an error.
type Searcher struct {
	httpClient  *http.Client
	endpoint    string
	userAgent   string
	maxSnippets int
}

// NewSearcher creates a searcher from config.
func NewSearcher(cfg model.FetchConfig) *Searcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 12 * time.Second
	}
	endpoint := cfg.SearchEndpoint
	if endpoint == "" {
		endpoint = defaultSearchEndpoint
	}
	maxSnippets := cfg.MaxSnippets
	if maxSnippets == 0 {
		maxSnippets = defaultMaxSnippets
	}

	return &Searcher{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.ProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
		},
		endpoint:    endpoint,
		userAgent:   cfg.UserAgent,
		maxSnippets: maxSnippets,
	}
}

// DomainContext runs the reputation probes for the host and returns ranked,
// numbered snippet blocks. An empty string means "no usable context".
func (s *Searcher) DomainContext(ctx context.Context, host string) (string, error) {
	domain := domainForSearch(host)
	if domain == "" {
		return "", nil
	}

	var results []searchResult
	seen := make(map[string]bool)
	for _, tmpl := range reputationQueries {
		batch, err := s.query(ctx, fmt.Sprintf(tmpl, domain))
		if err != nil {
			continue
		}
		for _, r := range batch {
			if r.Href == "" || seen[r.Href] {
				continue
			}
			seen[r.Href] = true
			results = append(results, r)
		}
	}

	relevant := rankSnippets(domain, results, s.maxSnippets)
	if len(relevant) == 0 {
		return "", nil
	}
	return formatResults(relevant), nil
}

// query runs one search and parses the result page.
func (s *Searcher) query(ctx context.Context, q string) ([]searchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?q="+url.QueryEscape(q), nil)
	if err != nil {
		return nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}
	return parseSearchResults(io.LimitReader(resp.Body, 2_000_000))
}

// parseSearchResults extracts title/href/snippet triples from the HTML
// search frontend (anchors classed result__a and result__snippet).
func parseSearchResults(r io.Reader) ([]searchResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var results []searchResult
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				results = append(results, searchResult{
					Title: nodeText(n),
					Href:  attrValue(n, "href"),
				})
			case hasClass(n, "result__snippet"):
				if len(results) > 0 && results[len(results)-1].Snippet == "" {
					results[len(results)-1].Snippet = nodeText(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results, nil
}

// rankSnippets keeps the top-k results most relevant to the reputation
// question, scored by domain and threat-term mentions. Results that mention
// neither are dropped.
func rankSnippets(domain string, results []searchResult, k int) []searchResult {
	type scored struct {
		r     searchResult
		score int
		pos   int
	}

	var kept []scored
	for i, r := range results {
		text := strings.ToLower(r.Title + " " + r.Snippet)
		score := 0
		if strings.Contains(text, strings.ToLower(domain)) {
			score += 2
		}
		for _, term := range threatTerms {
			if strings.Contains(text, term) {
				score++
			}
		}
		if score > 0 {
			kept = append(kept, scored{r: r, score: score, pos: i})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		return kept[i].pos < kept[j].pos
	})

	if k > len(kept) {
		k = len(kept)
	}
	out := make([]searchResult, 0, k)
	for _, s := range kept[:k] {
		out = append(out, s.r)
	}
	return out
}

// formatResults renders numbered snippet blocks for the prompt.
func formatResults(results []searchResult) string {
	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. Title: %s\n", i+1, strings.TrimSpace(r.Title))
		fmt.Fprintf(&sb, "   URL: %s\n", strings.TrimSpace(r.Href))
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "   Snippet: %s\n", strings.TrimSpace(r.Snippet))
		}
	}
	return sb.String()
}

// domainForSearch strips a leading www. from the host.
func domainForSearch(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(host, "www.")
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
