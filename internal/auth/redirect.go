package auth

import (
	"net/url"
	"strings"

	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
)

// MatchRedirectURI reports whether candidate is acceptable for a client with
// the given registered endpoints.
//
// A client without endpoints accepts anything. Otherwise each endpoint is tried
// in turn: scheme, host and port must match (case-insensitively) where the
// endpoint sets them, every query key of the endpoint must be present on the
// candidate, and the endpoint path must be a prefix of the candidate path, or
// of host+path when the endpoint has no host.
func MatchRedirectURI(candidate string, endpoints []string) bool {
	if len(endpoints) == 0 {
		return true
	}
	if candidate == "" {
		return false
	}
	c, err := url.Parse(candidate)
	if err != nil {
		return false
	}

	for _, raw := range endpoints {
		e, err := url.Parse(raw)
		if err != nil {
			e = &url.URL{Path: raw}
		}
		if endpointMatches(e, c) {
			return true
		}
	}
	return false
}

func endpointMatches(e, c *url.URL) bool {
	fields := []struct{ want, got string }{
		{e.Scheme, c.Scheme},
		{e.Hostname(), c.Hostname()},
		{e.Port(), c.Port()},
	}
	for _, f := range fields {
		if f.want == "" {
			continue
		}
		if f.got == "" || !strings.EqualFold(f.want, f.got) {
			return false
		}
	}

	if e.RawQuery != "" {
		if c.RawQuery == "" {
			return false
		}
		required, _ := url.ParseQuery(e.RawQuery)
		present, _ := url.ParseQuery(c.RawQuery)
		for key := range required {
			if _, ok := present[key]; !ok {
				return false
			}
		}
	}

	path := e.EscapedPath()
	if path == "" {
		return true
	}
	// Plain prefix test: "/app" also admits "/application"
	if e.Hostname() != "" {
		candidatePath := c.EscapedPath()
		return candidatePath != "" && strings.HasPrefix(candidatePath, path)
	}
	return strings.HasPrefix(c.Hostname()+c.EscapedPath(), path)
}

// ValidRedirectURI checks uri for client, substituting the client's default
// endpoint when uri is empty.
func ValidRedirectURI(client *models.Client, uri string) bool {
	endpoints := client.Endpoints()
	if len(endpoints) == 0 {
		return true
	}
	if uri == "" {
		uri = client.DefaultEndpoint
	}
	return MatchRedirectURI(uri, endpoints)
}
