package domain

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// RegistrableDomain returns the eTLD+1 of a url or hostname. When the
// public suffix list cannot tell, the lowercased host is returned.
func RegistrableDomain(raw string) string {
	host := strings.ToLower(strings.TrimSpace(raw))
	if strings.Contains(host, "://") {
		if u, err := url.Parse(host); err == nil {
			host = u.Hostname()
		}
	}
	host = strings.TrimSuffix(host, ".")
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return registrable
}

// MatchesDomain reports whether the url belongs to any of the registrable
// domains.
func (u Url) MatchesDomain(domains []string) bool {
	if len(domains) == 0 {
		return false
	}
	reg := RegistrableDomain(u.Url)
	for _, d := range domains {
		if RegistrableDomain(d) == reg {
			return true
		}
	}
	return false
}
