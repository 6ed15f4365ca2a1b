// internal/dispatch/filter.go
package dispatch

import "strings"

// DomainFilter suppresses delivery to blocked email domains. Matching
// is exact and case sensitive; an address without '@' never matches.
type DomainFilter struct {
	blocked map[string]struct{}
}

// NewDomainFilter builds a filter from a list of bare domains.
func NewDomainFilter(domains []string) *DomainFilter {
	blocked := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		if d = strings.TrimSpace(d); d != "" {
			blocked[d] = struct{}{}
		}
	}
	return &DomainFilter{blocked: blocked}
}

// IsBlocked reports whether the address belongs to a blocked domain.
func (f *DomainFilter) IsBlocked(email string) bool {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 {
		return false
	}
	_, ok := f.blocked[parts[1]]
	return ok
}
