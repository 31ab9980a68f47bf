package dockb

import (
	"net"
	"net/url"
	"strings"
)

// CanonicalURL normalizes a raw URL into a document identifier.
// The scheme and host are lowercased, default ports and the fragment are
// removed, and a trailing slash is stripped from the path.
// Returns EINVALID for anything that is not an absolute http(s) URL.
func CanonicalURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", Errorf(EINVALID, "invalid URL %q: %v", raw, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", Errorf(EINVALID, "invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", Errorf(EINVALID, "invalid URL %q: missing host", raw)
	}

	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !isDefaultPort(u.Scheme, port) {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	u.Host = host
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	if u.RawQuery == "" {
		u.ForceQuery = false
	}
	return u.String(), nil
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

// Scope restricts a crawl to a set of hosts and a path prefix.
type Scope struct {
	// Hosts lists the allowed hosts. An empty set allows any host.
	Hosts map[string]bool

	// PathPrefix restricts paths to those under it at a path boundary:
	// "/docs" matches "/docs" and "/docs/intro" but not "/documentation".
	PathPrefix string
}

// NewScope returns a scope limited to the hosts of the given canonical URLs
// and the given path prefix.
func NewScope(urls []string, pathPrefix string) *Scope {
	s := &Scope{Hosts: make(map[string]bool), PathPrefix: pathPrefix}
	for _, raw := range urls {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			s.Hosts[strings.ToLower(u.Host)] = true
		}
	}
	return s
}

// Contains reports whether the canonical URL lies inside the scope.
// A nil scope contains every URL.
func (s *Scope) Contains(rawURL string) bool {
	if s == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if len(s.Hosts) > 0 && !s.Hosts[strings.ToLower(u.Host)] {
		return false
	}
	return MatchesPathPrefix(u.Path, s.PathPrefix)
}

// MatchesPathPrefix reports whether path lies under prefix, respecting
// path boundaries. An empty or "/" prefix matches every path.
func MatchesPathPrefix(path, prefix string) bool {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return true
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// Domain returns the lowercased host of a URL, or an empty string.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
