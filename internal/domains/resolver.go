package domains

import (
	"context"
	"strings"
)

// TagLookup resolves a normalized domain to its tagged category. Implemented
// by the domain tag store; a miss is reported through found=false, not an
// error.
type TagLookup interface {
	LookupTag(ctx context.Context, domain string) (Category, bool, error)
}

// Resolver assigns a category to a cited domain. Resolution is read-only and
// deterministic for a given tag-store snapshot.
type Resolver struct {
	tags TagLookup
}

// NewResolver creates a resolver backed by the given tag lookup.
func NewResolver(tags TagLookup) *Resolver {
	return &Resolver{tags: tags}
}

// Resolve returns the category for domain, applying precedence in order:
// client ownership, exact tag, parent-domain tag, unknown. Ownership always
// wins, even over a conflicting system tag.
func (r *Resolver) Resolve(ctx context.Context, domain string, ownedDomains []string) (Category, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))

	if matchesOwned(domain, ownedDomains) {
		return CategoryOwned, nil
	}

	if cat, ok, err := r.tags.LookupTag(ctx, domain); err != nil {
		return CategoryUnknown, err
	} else if ok {
		return cat, nil
	}

	if parent := ParentDomain(domain); parent != domain {
		if cat, ok, err := r.tags.LookupTag(ctx, parent); err != nil {
			return CategoryUnknown, err
		} else if ok {
			return cat, nil
		}
	}

	return CategoryUnknown, nil
}

// matchesOwned checks the exact-equality and dot-suffix branches separately.
// Collapsing them into a substring check would let "notowned.com" match an
// owned "owned.com".
func matchesOwned(domain string, ownedDomains []string) bool {
	for _, owned := range ownedDomains {
		owned = strings.ToLower(strings.TrimSpace(owned))
		owned = strings.TrimPrefix(owned, "www.")
		if owned == "" {
			continue
		}
		if domain == owned {
			return true
		}
		if strings.HasSuffix(domain, "."+owned) {
			return true
		}
	}
	return false
}
