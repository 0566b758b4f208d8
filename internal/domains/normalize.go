package domains

import (
	"net/url"
	"strings"
)

// compoundTLDs lists second-level registries where the registrable domain
// keeps three labels (docs.example.co.uk -> example.co.uk, not co.uk).
var compoundTLDs = map[string]struct{}{
	"co.uk":  {},
	"org.uk": {},
	"gov.uk": {},
	"ac.uk":  {},
	"net.uk": {},
	"me.uk":  {},
	"com.au": {},
	"net.au": {},
	"org.au": {},
	"edu.au": {},
	"co.nz":  {},
	"net.nz": {},
	"org.nz": {},
	"co.jp":  {},
	"ne.jp":  {},
	"or.jp":  {},
	"co.kr":  {},
	"co.in":  {},
	"net.in": {},
	"org.in": {},
	"com.br": {},
	"com.mx": {},
	"com.ar": {},
	"com.sg": {},
	"com.hk": {},
	"com.tw": {},
	"com.cn": {},
	"co.za":  {},
	"com.tr": {},
}

// Normalize reduces a citation URL to a bare lowercase hostname with any
// leading "www." removed. Malformed input fails soft: the original string is
// returned (lowercased) so the citation can still be stored.
func Normalize(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	host := hostOf(trimmed)
	if host == "" {
		// Scheme-less citations like "coindesk.com/a" parse with an empty
		// host; retry with an explicit scheme before giving up.
		host = hostOf("https://" + trimmed)
	}
	if host == "" {
		return strings.ToLower(trimmed)
	}
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	return host
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// ParentDomain strips one level of subdomain from a normalized domain,
// without splitting a compound second-level TLD. Domains with two or fewer
// labels are already bare roots and come back unchanged.
func ParentDomain(domain string) string {
	labels := strings.Split(domain, ".")
	if len(labels) <= 2 {
		return domain
	}
	lastTwo := strings.Join(labels[len(labels)-2:], ".")
	if _, ok := compoundTLDs[lastTwo]; ok && len(labels) > 3 {
		return strings.Join(labels[len(labels)-3:], ".")
	}
	return strings.Join(labels[len(labels)-2:], ".")
}
