package accm

import (
	"github.com/graphmark/graphmark/internal/document"
)

// Policy is the compiled restriction set for one database selector.
// Policies are immutable after compilation and shared across concurrent
// readers without locking.
type Policy struct {
	// DatabaseMatch is an exact database name or the wildcard "*".
	DatabaseMatch string

	// Roles carries the role names granted by the attribute authority.
	Roles []string

	// Attributes carries the raw attribute map the policy was compiled
	// from, kept for audit dumps.
	Attributes map[string]any

	// Restrictions is the ordered list of type restrictions. Order matters
	// for pattern resolution: the first matching pattern wins.
	Restrictions []*TypeRestriction
}

// ResolveRestriction finds the restriction governing a document type.
// Precedence: exact type name, then first matching pattern, then the
// wildcard entry. No match is a hard TYPE_RESTRICTION_MISSING error, never
// a silent allow.
func (p *Policy) ResolveRestriction(typeName string) (*TypeRestriction, error) {
	for _, tr := range p.Restrictions {
		if tr.matchesExact(typeName) {
			return tr, nil
		}
	}
	for _, tr := range p.Restrictions {
		if tr.matchesPattern(typeName) {
			return tr, nil
		}
	}
	for _, tr := range p.Restrictions {
		if tr.TypeMatch == Wildcard {
			return tr, nil
		}
	}
	return nil, NewTypeRestrictionMissing(p.DatabaseMatch, typeName)
}

// Authorize resolves the restriction for the type and evaluates the action
// against the document's classification payload.
func (p *Policy) Authorize(typeName string, action Action, doc document.Object) (bool, error) {
	tr, err := p.ResolveRestriction(typeName)
	if err != nil {
		return false, err
	}
	return tr.Authorize(action, doc), nil
}

// PolicySet is the per-session collection of compiled policies, keyed by
// database selector.
type PolicySet struct {
	policies []*Policy
}

// NewPolicySet wraps compiled policies for resolution.
func NewPolicySet(policies []*Policy) *PolicySet {
	return &PolicySet{policies: policies}
}

// Policies returns the underlying policies in compilation order.
func (ps *PolicySet) Policies() []*Policy {
	return ps.policies
}

// Resolve finds the policy governing a database: exact name first, then the
// wildcard entry. No match is a hard POLICY_MISSING error.
func (ps *PolicySet) Resolve(database string) (*Policy, error) {
	for _, p := range ps.policies {
		if p.DatabaseMatch == database {
			return p, nil
		}
	}
	for _, p := range ps.policies {
		if p.DatabaseMatch == Wildcard {
			return p, nil
		}
	}
	return nil, NewPolicyMissing(database)
}
