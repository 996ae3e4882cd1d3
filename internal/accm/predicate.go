package accm

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/graphmark/graphmark/internal/document"
)

// Predicate is a single comparison against one dot-path of a document's
// classification payload.
//
// Operands are normalized to a typed container at construction time:
// string-encoded lists ("[A, B]") are split and trimmed exactly once, so
// evaluation never sniffs formats on the hot scan path.
//
// The null policy defaults to grant: when the field path resolves to
// nothing the predicate evaluates to NullPolicy instead of false (unless
// the operator is FIELD_NOT_PRESENT, which then evaluates true). This bias
// keeps reads permissive for legacy documents that predate newer
// classification sub-fields. Negate flips the result only when the field
// was actually present.
type Predicate struct {
	Field      string
	Op         Operator
	Negate     bool
	NullPolicy bool

	scalar document.Value
	list   []document.Value
	scale  *Scale
}

// PredicateOption configures optional predicate behavior.
type PredicateOption func(*Predicate)

// WithNegate flips the predicate result when the field is present.
func WithNegate() PredicateOption {
	return func(p *Predicate) { p.Negate = true }
}

// WithNullPolicy overrides the default grant-on-absent behavior.
func WithNullPolicy(grant bool) PredicateOption {
	return func(p *Predicate) { p.NullPolicy = grant }
}

// WithScale supplies the classification scale used for rank comparison when
// an ordering operator carries a level-label operand.
func WithScale(s *Scale) PredicateOption {
	return func(p *Predicate) { p.scale = s }
}

// NewPredicate builds a predicate, normalizing the operand for the operator.
// An operand whose shape cannot be normalized for the operator is a
// MALFORMED_OPERAND configuration error.
func NewPredicate(field string, op Operator, operand any, opts ...PredicateOption) (*Predicate, error) {
	if field == "" && op != OpFieldNotPresent {
		return nil, fmt.Errorf("predicate field must not be empty")
	}

	p := &Predicate{
		Field:      field,
		Op:         op,
		NullPolicy: true,
	}
	for _, opt := range opts {
		opt(p)
	}

	if op == OpFieldNotPresent {
		// Presence checks carry no operand.
		return p, nil
	}

	if op.takesList() {
		list, err := normalizeList(operand)
		if err != nil {
			return nil, NewMalformedOperand(field, op, operand)
		}
		p.list = list
		return p, nil
	}

	scalar, err := normalizeScalar(operand)
	if err != nil {
		return nil, NewMalformedOperand(field, op, operand)
	}
	p.scalar = scalar
	return p, nil
}

// MustPredicate is NewPredicate that panics on a malformed operand.
// Intended for statically known predicates in tests and fixtures.
func MustPredicate(field string, op Operator, operand any, opts ...PredicateOption) *Predicate {
	p, err := NewPredicate(field, op, operand, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Evaluate resolves the predicate's field in the document and computes the
// comparison. Shape mismatches between the document value and the operator
// evaluate to false; nothing in this path returns an error or panics.
func (p *Predicate) Evaluate(doc document.Object) bool {
	if doc == nil {
		return false
	}

	v, present := doc.Resolve(p.Field)
	if !present {
		if p.Op == OpFieldNotPresent {
			return true
		}
		// Negate is not applied on the absence short-circuit.
		return p.NullPolicy
	}

	result := p.apply(v)
	if p.Negate {
		result = !result
	}
	return result
}

// apply computes the raw per-operator result for a resolved value.
func (p *Predicate) apply(v document.Value) bool {
	switch p.Op {
	case OpFieldNotPresent:
		return false
	case OpEQ:
		return scalarEqual(p.scalar, v)
	case OpNEQ:
		return !scalarEqual(p.scalar, v)
	case OpAnyOf:
		for _, elem := range p.list {
			if scalarEqual(elem, v) {
				return true
			}
		}
		return false
	case OpContains:
		return p.containsAny(v)
	case OpNotContains:
		return !p.containsAny(v)
	case OpGT:
		cmp, ok := p.compare(v)
		return ok && cmp > 0
	case OpGTEq:
		cmp, ok := p.compare(v)
		return ok && cmp >= 0
	case OpLT:
		cmp, ok := p.compare(v)
		return ok && cmp < 0
	case OpLTEq:
		cmp, ok := p.compare(v)
		return ok && cmp <= 0
	case OpAnyIn:
		arr, ok := v.(document.Array)
		if !ok {
			return false
		}
		for _, docElem := range arr {
			for _, opElem := range p.list {
				if scalarEqual(opElem, docElem) {
					return true
				}
			}
		}
		return false
	case OpAllIn:
		arr, ok := v.(document.Array)
		if !ok {
			return false
		}
		for _, docElem := range arr {
			found := false
			for _, opElem := range p.list {
				if scalarEqual(opElem, docElem) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case OpNoneIn:
		if arr, ok := v.(document.Array); ok {
			for _, docElem := range arr {
				for _, opElem := range p.list {
					if scalarEqual(opElem, docElem) {
						return false
					}
				}
			}
			return true
		}
		for _, opElem := range p.list {
			if scalarEqual(opElem, v) {
				return false
			}
		}
		return true
	}

	slog.Debug("unknown predicate operator evaluates false", "op", string(p.Op), "field", p.Field)
	return false
}

// containsAny reports whether the document's list shares an element with the
// operand list. A non-list document value contains nothing.
func (p *Predicate) containsAny(v document.Value) bool {
	arr, ok := v.(document.Array)
	if !ok {
		return false
	}
	for _, docElem := range arr {
		for _, opElem := range p.list {
			if scalarEqual(opElem, docElem) {
				return true
			}
		}
	}
	return false
}

// compare orders the document value against the scalar operand.
// Integer operands compare numerically; string operands are classification
// labels and compare by scale rank. Returns ok=false on any shape or rank
// failure, which the ordering operators treat as a failed match.
func (p *Predicate) compare(v document.Value) (int, bool) {
	switch operand := p.scalar.(type) {
	case document.Int:
		docInt, ok := v.(document.Int)
		if !ok {
			return 0, false
		}
		switch {
		case docInt < operand:
			return -1, true
		case docInt > operand:
			return 1, true
		default:
			return 0, true
		}
	case document.String:
		if p.scale == nil {
			slog.Debug("ordering predicate on label operand without a scale", "field", p.Field, "op", string(p.Op))
			return 0, false
		}
		docStr, ok := v.(document.String)
		if !ok {
			return 0, false
		}
		cmp, err := p.scale.Compare(string(docStr), string(operand))
		if err != nil {
			return 0, false
		}
		return cmp, true
	default:
		return 0, false
	}
}

// scalarEqual compares two scalar values structurally. Strings compare
// after token normalization so markings from different producers agree.
func scalarEqual(a, b document.Value) bool {
	switch av := a.(type) {
	case document.String:
		bv, ok := b.(document.String)
		return ok && NormalizeToken(string(av)) == NormalizeToken(string(bv))
	case document.Int:
		bv, ok := b.(document.Int)
		return ok && av == bv
	case document.Bool:
		bv, ok := b.(document.Bool)
		return ok && av == bv
	case document.Null:
		_, ok := b.(document.Null)
		return ok
	default:
		return false
	}
}

// normalizeScalar converts a Go value into a scalar document.Value.
func normalizeScalar(operand any) (document.Value, error) {
	switch v := operand.(type) {
	case document.String, document.Int, document.Bool:
		return v.(document.Value), nil
	case string:
		return document.String(v), nil
	case int:
		return document.Int(int64(v)), nil
	case int64:
		return document.Int(v), nil
	case bool:
		return document.Bool(v), nil
	default:
		return nil, fmt.Errorf("not a scalar: %T", operand)
	}
}

// normalizeList converts a Go value into a list of scalar document.Values.
// A plain string is interpreted as a delimited list encoding ("[A, B]" or
// "A,B") and split exactly once, here.
func normalizeList(operand any) ([]document.Value, error) {
	switch v := operand.(type) {
	case []document.Value:
		return v, nil
	case document.Array:
		return []document.Value(v), nil
	case []string:
		out := make([]document.Value, len(v))
		for i, s := range v {
			out[i] = document.String(strings.TrimSpace(s))
		}
		return out, nil
	case []int:
		out := make([]document.Value, len(v))
		for i, n := range v {
			out[i] = document.Int(int64(n))
		}
		return out, nil
	case []any:
		out := make([]document.Value, len(v))
		for i, elem := range v {
			scalar, err := normalizeScalar(elem)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			out[i] = scalar
		}
		return out, nil
	case string:
		return splitEncodedList(v), nil
	default:
		return nil, fmt.Errorf("not a list: %T", operand)
	}
}

// splitEncodedList parses a string-encoded list into trimmed elements.
// Surrounding brackets and quotes are stripped; empty elements are dropped.
func splitEncodedList(s string) []document.Value {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.ReplaceAll(s, `"`, "")

	parts := strings.Split(s, ",")
	out := make([]document.Value, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, document.String(trimmed))
	}
	return out
}

// Operands returns the normalized operand values for inspection and dumps.
func (p *Predicate) Operands() []document.Value {
	if p.Op.takesList() {
		return p.list
	}
	if p.scalar == nil {
		return nil
	}
	return []document.Value{p.scalar}
}
