package accm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/graphmark/graphmark/internal/document"
)

// Wildcard matches any database or type name.
const Wildcard = "*"

// TypeRestriction bundles the per-action expression lists for one document
// type selector. TypeMatch is an exact type name, the wildcard "*", or a
// regular expression; regex patterns are compiled once at construction.
type TypeRestriction struct {
	TypeMatch string
	Kind      GraphKind

	OnCreate []*Expression
	OnRead   []*Expression
	OnUpdate []*Expression
	OnDelete []*Expression

	pattern *regexp.Regexp
}

// NewTypeRestriction builds a restriction for the given type selector.
// A selector that is neither an exact name nor "*" is treated as a regular
// expression and must compile.
func NewTypeRestriction(typeMatch string, kind GraphKind) (*TypeRestriction, error) {
	tr := &TypeRestriction{TypeMatch: typeMatch, Kind: kind}
	if looksLikePattern(typeMatch) {
		p, err := regexp.Compile(typeMatch)
		if err != nil {
			return nil, fmt.Errorf("type restriction pattern %q: %w", typeMatch, err)
		}
		tr.pattern = p
	}
	return tr, nil
}

// looksLikePattern reports whether the selector carries regexp
// metacharacters beyond a bare name or the wildcard.
func looksLikePattern(s string) bool {
	if s == Wildcard {
		return false
	}
	return strings.ContainsAny(s, `.^$+?()[]{}|\`)
}

// SetAll installs the same expression on all four action lists.
func (tr *TypeRestriction) SetAll(e *Expression) {
	tr.OnCreate = []*Expression{e}
	tr.OnRead = []*Expression{e}
	tr.OnUpdate = []*Expression{e}
	tr.OnDelete = []*Expression{e}
}

// expressions returns the list for the given action.
func (tr *TypeRestriction) expressions(action Action) []*Expression {
	switch action {
	case ActionCreate:
		return tr.OnCreate
	case ActionRead:
		return tr.OnRead
	case ActionUpdate:
		return tr.OnUpdate
	case ActionDelete:
		return tr.OnDelete
	}
	return nil
}

// Authorize evaluates the action's expression list against the document's
// classification payload. Every expression must pass independently; an
// empty list is unrestricted.
func (tr *TypeRestriction) Authorize(action Action, doc document.Object) bool {
	result := true
	for _, e := range tr.expressions(action) {
		if !e.Evaluate(doc) {
			result = false
		}
	}
	return result
}

// matchesExact reports an exact type-name match.
func (tr *TypeRestriction) matchesExact(typeName string) bool {
	return tr.pattern == nil && tr.TypeMatch == typeName
}

// matchesPattern reports a regex selector match.
func (tr *TypeRestriction) matchesPattern(typeName string) bool {
	return tr.pattern != nil && tr.pattern.MatchString(typeName)
}
