package model

import (
	"net/url"
	"strings"
)

// URLRecord is the normalized form of a raw input URL.
// It is created once at request entry and never mutated afterward.
type URLRecord struct {
	Raw    string `json:"raw"`              // Original input string, untouched
	Scheme string `json:"scheme,omitempty"` // Lowercased scheme ("http", "https")
	Host   string `json:"host,omitempty"`   // Lowercased host, port stripped
	Port   string `json:"port,omitempty"`   // Port if present
	Path   string `json:"path,omitempty"`   // Path component
	Query  string `json:"query,omitempty"`  // Raw query string
	Valid  bool   `json:"valid"`            // Whether the URL parsed into a usable host
}

// ParseURL normalizes a raw URL string. It never fails: unparsable input
// yields a record with Valid=false and the raw string preserved, so feature
// extraction can still run with sentinel values.
func ParseURL(raw string) URLRecord {
	rec := URLRecord{Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return rec
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return rec
	}

	rec.Scheme = strings.ToLower(parsed.Scheme)
	rec.Host = strings.ToLower(parsed.Hostname())
	rec.Port = parsed.Port()
	rec.Path = parsed.Path
	rec.Query = parsed.RawQuery
	rec.Valid = rec.Host != "" && hostLooksRoutable(rec.Host)

	return rec
}

// hostLooksRoutable rejects bare single-label hosts (except localhost),
// mirroring the minimal sanity check applied at request entry.
func hostLooksRoutable(host string) bool {
	h := strings.TrimPrefix(host, "www.")
	if h == "localhost" {
		return true
	}
	return strings.Contains(h, ".")
}
