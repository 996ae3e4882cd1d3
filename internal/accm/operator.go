package accm

// Operator identifies a predicate comparison. The set is closed: every
// switch over Operator in this package carries an arm for each value, and
// unknown operators evaluate to false.
type Operator string

const (
	// OpEQ matches when the document value structurally equals the operand.
	OpEQ Operator = "EQ"

	// OpNEQ matches when the document value differs from the operand.
	OpNEQ Operator = "NEQ"

	// OpAnyOf matches when the document value equals any operand element.
	OpAnyOf Operator = "ANY_OF"

	// OpContains matches when the document's list shares any element with
	// the operand list.
	OpContains Operator = "CONTAINS"

	// OpNotContains is the negation of OpContains.
	OpNotContains Operator = "NOT_CONTAINS"

	// OpFieldNotPresent matches when the field path does not resolve.
	OpFieldNotPresent Operator = "FIELD_NOT_PRESENT"

	// OpGT, OpGTEq, OpLT, OpLTEq order the document value against the
	// operand: numerically for integer operands, by classification rank
	// for scale-label operands. All four are fully distinct comparisons.
	OpGT   Operator = "GT"
	OpGTEq Operator = "GT_EQ"
	OpLT   Operator = "LT"
	OpLTEq Operator = "LT_EQ"

	// OpAnyIn matches when the document's list intersects the operand list.
	OpAnyIn Operator = "ANY_IN"

	// OpAllIn matches when every element of the document's list is found in
	// the operand list. This is the coverage check used for compartment
	// validation: the document's required compartments must be covered by
	// an authorized combination.
	OpAllIn Operator = "ALL_IN"

	// OpNoneIn matches only when the document's list and the operand list
	// are disjoint.
	OpNoneIn Operator = "NONE_IN"
)

// takesList reports whether the operator compares against a list operand.
func (op Operator) takesList() bool {
	switch op {
	case OpAnyOf, OpContains, OpNotContains, OpAnyIn, OpAllIn, OpNoneIn:
		return true
	case OpEQ, OpNEQ, OpFieldNotPresent, OpGT, OpGTEq, OpLT, OpLTEq:
		return false
	}
	return false
}

// Action identifies a record operation being authorized.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// GraphKind identifies which record shapes a restriction applies to.
type GraphKind string

const (
	KindVertex   GraphKind = "VERTEX"
	KindEdge     GraphKind = "EDGE"
	KindDocument GraphKind = "DOCUMENT"
	KindAny      GraphKind = "ANY"
)
