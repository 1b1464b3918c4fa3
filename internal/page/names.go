package page

import "strings"

// Names is the project identity derived from a Host header.
type Names struct {
	Group  string // leftmost label, e.g. "sbsa"
	Domain string // everything after the first dot, e.g. "r-forge.r-project.org"
}

// DeriveNames splits host at its first dot. A host without a dot yields the
// whole host for both fields; a port, if present, stays with the domain.
func DeriveNames(host string) Names {
	group, domain, ok := strings.Cut(host, ".")
	if !ok {
		return Names{Group: host, Domain: host}
	}
	return Names{Group: group, Domain: domain}
}
