package accm

import (
	"github.com/graphmark/graphmark/internal/document"

	"github.com/google/uuid"
)

// BoolOp combines the results of an expression's predicates and children.
type BoolOp string

const (
	OpAND BoolOp = "AND"
	OpOR  BoolOp = "OR"
)

// Expression is an AND/OR node over predicates and sub-expressions.
//
// Evaluation computes every predicate and every child, with no
// short-circuit, so each sub-result is available to audit logging. An AND
// over an empty set is vacuously true (no further restriction); an OR over
// an empty set is false.
//
// ID is an opaque token for logging and debugging, not semantically
// meaningful. Expressions are compiled fresh per session from a tree, so
// nesting depth is unrestricted and cycles cannot occur.
type Expression struct {
	ID         string
	Op         BoolOp
	Predicates []*Predicate
	Children   []*Expression
}

// NewExpression builds an expression node with a fresh opaque ID.
func NewExpression(op BoolOp, predicates []*Predicate, children []*Expression) *Expression {
	return &Expression{
		ID:         uuid.NewString(),
		Op:         op,
		Predicates: predicates,
		Children:   children,
	}
}

// And builds an AND node over the given predicates.
func And(predicates ...*Predicate) *Expression {
	return NewExpression(OpAND, predicates, nil)
}

// Or builds an OR node over the given predicates.
func Or(predicates ...*Predicate) *Expression {
	return NewExpression(OpOR, predicates, nil)
}

// Group appends child expressions to the node and returns it.
func (e *Expression) Group(children ...*Expression) *Expression {
	e.Children = append(e.Children, children...)
	return e
}

// Evaluate computes the expression against the document's classification
// payload. Every predicate and child is evaluated before combining.
func (e *Expression) Evaluate(doc document.Object) bool {
	switch e.Op {
	case OpAND:
		result := true
		for _, p := range e.Predicates {
			if !p.Evaluate(doc) {
				result = false
			}
		}
		for _, child := range e.Children {
			if !child.Evaluate(doc) {
				result = false
			}
		}
		return result
	case OpOR:
		result := false
		for _, p := range e.Predicates {
			if p.Evaluate(doc) {
				result = true
			}
		}
		for _, child := range e.Children {
			if child.Evaluate(doc) {
				result = true
			}
		}
		return result
	}
	return false
}
