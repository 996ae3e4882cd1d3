package accm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/graphmark/graphmark/internal/document"
)

// Describe renders a deterministic indented text dump of a policy for
// debugging and golden tests. Expression IDs are random per compilation and
// are omitted so two compilations of the same attributes render
// identically.
func Describe(p *Policy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "policy database=%s\n", p.DatabaseMatch)
	if len(p.Roles) > 0 {
		fmt.Fprintf(&b, "  roles: %s\n", strings.Join(p.Roles, ", "))
	}
	for _, tr := range p.Restrictions {
		describeRestriction(&b, tr)
	}
	return b.String()
}

// DescribeSet renders every policy in the set, in compilation order.
func DescribeSet(ps *PolicySet) string {
	var b strings.Builder
	for i, p := range ps.Policies() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(Describe(p))
	}
	return b.String()
}

func describeRestriction(b *strings.Builder, tr *TypeRestriction) {
	fmt.Fprintf(b, "  restriction type=%s kind=%s\n", tr.TypeMatch, tr.Kind)
	describeActionList(b, "create", tr.OnCreate)
	describeActionList(b, "read", tr.OnRead)
	describeActionList(b, "update", tr.OnUpdate)
	describeActionList(b, "delete", tr.OnDelete)
}

func describeActionList(b *strings.Builder, action string, exprs []*Expression) {
	if len(exprs) == 0 {
		return
	}
	fmt.Fprintf(b, "    on %s:\n", action)
	for _, e := range exprs {
		describeExpression(b, e, 3)
	}
}

func describeExpression(b *strings.Builder, e *Expression, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s\n", indent, e.Op)
	for _, p := range e.Predicates {
		fmt.Fprintf(b, "%s  %s\n", indent, describePredicate(p))
	}
	for _, child := range e.Children {
		describeExpression(b, child, depth+1)
	}
}

func describePredicate(p *Predicate) string {
	var b strings.Builder
	b.WriteString(p.Field)
	b.WriteString(" ")
	b.WriteString(string(p.Op))
	if ops := p.Operands(); len(ops) > 0 {
		b.WriteString(" ")
		b.WriteString(describeOperands(ops, p.Op.takesList()))
	}
	if p.Negate {
		b.WriteString(" negate")
	}
	if !p.NullPolicy {
		b.WriteString(" null=deny")
	}
	return b.String()
}

func describeOperands(ops []document.Value, asList bool) string {
	parts := make([]string, len(ops))
	for i, v := range ops {
		parts[i] = describeValue(v)
	}
	if !asList {
		return strings.Join(parts, ", ")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func describeValue(v document.Value) string {
	switch val := v.(type) {
	case document.String:
		return string(val)
	case document.Int:
		return fmt.Sprintf("%d", int64(val))
	case document.Bool:
		return fmt.Sprintf("%t", bool(val))
	case document.Null:
		return "null"
	case document.Array:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = describeValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case document.Object:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + describeValue(val[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "?"
}
