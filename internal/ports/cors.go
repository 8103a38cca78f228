package ports

import (
	"fmt"
	"net/http"
	"strings"
)

const (
	corsAllowedMethods = "GET,POST"
	corsAllowedHeaders = "Content-Type, X-User-Id"
	// Seconds browsers may cache a preflight response
	corsMaxAge = "3600"
)

// DomainSuffixes matches https origins on a set of domains and their subdomains
type DomainSuffixes struct {
	exact      []string
	subdomains []string
}

func NewDomainSuffixes(suffixes ...string) (*DomainSuffixes, error) {
	allowed := &DomainSuffixes{
		exact:      make([]string, 0, len(suffixes)),
		subdomains: make([]string, 0, len(suffixes)),
	}
	for _, suffix := range suffixes {
		if strings.HasPrefix(suffix, ".") {
			return nil, fmt.Errorf("domain suffix %s should not start with a dot", suffix)
		}
		if strings.Contains(suffix, "://") {
			return nil, fmt.Errorf("domain suffix %s should not contain a scheme", suffix)
		}
		allowed.exact = append(allowed.exact, "https://"+suffix)
		allowed.subdomains = append(allowed.subdomains, "."+suffix)
	}
	return allowed, nil
}

func (suffixes *DomainSuffixes) AnyMatch(origin string) bool {
	// Only accept origins with https scheme
	if !strings.HasPrefix(origin, "https://") {
		return false
	}

	for i := range suffixes.exact {
		if origin == suffixes.exact[i] || strings.HasSuffix(origin, suffixes.subdomains[i]) {
			return true
		}
	}
	return false
}

func BuildCORSMiddleware(allowedSuffixes *DomainSuffixes) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if allowedSuffixes.AnyMatch(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)

				if r.Method == http.MethodOptions {
					w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
					w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
					w.Header().Set("Access-Control-Max-Age", corsMaxAge)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}

			next(w, r)
		}
	}
}

// BuildCORSHandler answers preflight requests for a route
func BuildCORSHandler(allowedSuffixes *DomainSuffixes) http.HandlerFunc {
	return BuildCORSMiddleware(allowedSuffixes)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}
