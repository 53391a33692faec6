// Package util holds small shared helpers with no domain logic.
package util

import (
	"net/http"
	"net/url"
)

// ProxyFunc builds the proxy selector for an HTTP transport. Explicit
// per-scheme proxy URLs win; with neither set the standard environment
// variables (HTTP_PROXY, HTTPS_PROXY, NO_PROXY) apply.
func ProxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		switch {
		case req.URL.Scheme == "https" && httpsProxy != "":
			return url.Parse(httpsProxy)
		case httpProxy != "":
			return url.Parse(httpProxy)
		default:
			return http.ProxyFromEnvironment(req)
		}
	}
}
