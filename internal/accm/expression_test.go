package accm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpressionVacuousTruth(t *testing.T) {
	doc := mustDoc(t, `{"anything": 1}`)

	// AND over nothing is no further restriction.
	assert.True(t, And().Evaluate(doc))

	// OR over nothing can never be satisfied.
	assert.False(t, Or().Evaluate(doc))
}

func TestExpressionAnd(t *testing.T) {
	doc := mustDoc(t, `{"level": "S", "nation": "USA"}`)

	both := And(
		MustPredicate("level", OpEQ, "S"),
		MustPredicate("nation", OpEQ, "USA"),
	)
	assert.True(t, both.Evaluate(doc))

	oneFails := And(
		MustPredicate("level", OpEQ, "S"),
		MustPredicate("nation", OpEQ, "GBR"),
	)
	assert.False(t, oneFails.Evaluate(doc))
}

func TestExpressionOr(t *testing.T) {
	doc := mustDoc(t, `{"level": "S"}`)

	anyOf := Or(
		MustPredicate("level", OpEQ, "TS"),
		MustPredicate("level", OpEQ, "S"),
	)
	assert.True(t, anyOf.Evaluate(doc))

	noneOf := Or(
		MustPredicate("level", OpEQ, "TS"),
		MustPredicate("level", OpEQ, "C"),
	)
	assert.False(t, noneOf.Evaluate(doc))
}

func TestExpressionNesting(t *testing.T) {
	doc := mustDoc(t, `{"level": "S", "tags": ["USA"]}`)

	// AND(level=S, OR(tags ANY_IN [USA], tags ANY_IN [GBR]))
	expr := And(MustPredicate("level", OpEQ, "S")).Group(
		Or(
			MustPredicate("tags", OpAnyIn, []string{"USA"}),
			MustPredicate("tags", OpAnyIn, []string{"GBR"}),
		),
	)
	assert.True(t, expr.Evaluate(doc))

	// Failing the nested OR fails the outer AND.
	expr2 := And(MustPredicate("level", OpEQ, "S")).Group(
		Or(MustPredicate("tags", OpAnyIn, []string{"FRA"})),
	)
	assert.False(t, expr2.Evaluate(doc))
}

func TestExpressionIDsAreUnique(t *testing.T) {
	a := And()
	b := And()

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}
