package accm

import (
	"errors"
	"fmt"
)

// Code categorizes enforcement errors.
type Code string

const (
	// CodeInvalidClassification indicates a classification token outside the
	// configured scale. Always surfaced, never recovered.
	CodeInvalidClassification Code = "INVALID_CLASSIFICATION"

	// CodeClassificationMissing indicates a document without classification
	// markings at a point where markings are mandatory.
	CodeClassificationMissing Code = "CLASSIFICATION_MISSING"

	// CodePolicyMissing indicates no policy could be located for a database.
	CodePolicyMissing Code = "POLICY_MISSING"

	// CodeTypeRestrictionMissing indicates no restriction could be located
	// for a document type within a policy.
	CodeTypeRestrictionMissing Code = "TYPE_RESTRICTION_MISSING"

	// CodeNotAuthorized indicates the user failed the restriction for the
	// attempted action.
	CodeNotAuthorized Code = "NOT_AUTHORIZED"

	// CodeMalformedOperand indicates a predicate operand whose shape does not
	// match its operator. Construction rejects it; evaluation treats it as
	// false and never raises it mid-scan.
	CodeMalformedOperand Code = "MALFORMED_OPERAND"
)

// Error is a structured enforcement error.
//
// The system must never default to "allow" when policy cannot be located, so
// resolution failures carry enough context (database, type) for an operator
// to fix the policy configuration.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Database names the affected database, when known.
	Database string

	// TypeName names the affected document type, when known.
	TypeName string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Database != "" && e.TypeName != "":
		return fmt.Sprintf("%s: %s (database=%s, type=%s)", e.Code, e.Message, e.Database, e.TypeName)
	case e.Database != "":
		return fmt.Sprintf("%s: %s (database=%s)", e.Code, e.Message, e.Database)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// NewInvalidClassification creates an Error for an unknown classification token.
func NewInvalidClassification(token string, levels []string) *Error {
	return &Error{
		Code:    CodeInvalidClassification,
		Message: fmt.Sprintf("classification %q is not one of %v", token, levels),
	}
}

// NewClassificationMissing creates an Error for a document without markings.
func NewClassificationMissing(database, typeName string) *Error {
	return &Error{
		Code:     CodeClassificationMissing,
		Message:  "classification markings are missing on document",
		Database: database,
		TypeName: typeName,
	}
}

// NewPolicyMissing creates an Error for an unresolvable database policy.
func NewPolicyMissing(database string) *Error {
	return &Error{
		Code:     CodePolicyMissing,
		Message:  "no policy found for database",
		Database: database,
	}
}

// NewTypeRestrictionMissing creates an Error for an unresolvable type restriction.
func NewTypeRestrictionMissing(database, typeName string) *Error {
	return &Error{
		Code:     CodeTypeRestrictionMissing,
		Message:  "no type restriction found for document type",
		Database: database,
		TypeName: typeName,
	}
}

// NewNotAuthorized creates an Error for a failed authorization check.
func NewNotAuthorized(database, typeName string, action Action) *Error {
	return &Error{
		Code:     CodeNotAuthorized,
		Message:  fmt.Sprintf("user is not authorized to %s document", action),
		Database: database,
		TypeName: typeName,
	}
}

// NewMalformedOperand creates an Error for an operand/operator shape mismatch.
func NewMalformedOperand(field string, op Operator, operand any) *Error {
	return &Error{
		Code:    CodeMalformedOperand,
		Message: fmt.Sprintf("operand %v (%T) does not fit operator %s on field %q", operand, operand, op, field),
	}
}

// IsCode returns true if the error carries the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsPolicyMissing returns true for POLICY_MISSING errors.
func IsPolicyMissing(err error) bool { return IsCode(err, CodePolicyMissing) }

// IsTypeRestrictionMissing returns true for TYPE_RESTRICTION_MISSING errors.
func IsTypeRestrictionMissing(err error) bool { return IsCode(err, CodeTypeRestrictionMissing) }

// IsClassificationMissing returns true for CLASSIFICATION_MISSING errors.
func IsClassificationMissing(err error) bool { return IsCode(err, CodeClassificationMissing) }

// IsNotAuthorized returns true for NOT_AUTHORIZED errors.
func IsNotAuthorized(err error) bool { return IsCode(err, CodeNotAuthorized) }

// IsInvalidClassification returns true for INVALID_CLASSIFICATION errors.
func IsInvalidClassification(err error) bool { return IsCode(err, CodeInvalidClassification) }
