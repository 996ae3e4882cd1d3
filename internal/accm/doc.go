// Package accm implements the classification rule engine: an ordered
// classification scale, field predicates, AND/OR expression trees, and the
// per-type, per-action restriction sets that policies are built from.
//
// Everything in this package is immutable after construction. A compiled
// policy is shared across concurrent readers without locking; evaluation
// allocates nothing on the per-record path.
//
// The engine fails closed: a policy or restriction that cannot be located is
// a hard error, and a predicate whose operand does not fit its operator
// evaluates to false rather than panicking mid-scan.
package accm
