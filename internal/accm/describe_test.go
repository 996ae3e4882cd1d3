package accm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeDeterministic(t *testing.T) {
	tr, err := NewTypeRestriction(Wildcard, KindVertex)
	require.NoError(t, err)
	tr.SetAll(And(
		MustPredicate("components.classification", OpAnyOf, []string{"U", "C"}),
		MustPredicate("components.disseminationControls", OpContains, []string{"NOFORN"}, WithNegate()),
	))

	p := &Policy{
		DatabaseMatch: "intel",
		Roles:         []string{"analyst"},
		Restrictions:  []*TypeRestriction{tr},
	}

	first := Describe(p)
	second := Describe(p)
	assert.Equal(t, first, second)

	// The dump names the structure, not the random expression IDs.
	assert.Contains(t, first, "policy database=intel")
	assert.Contains(t, first, "restriction type=* kind=VERTEX")
	assert.Contains(t, first, "components.classification ANY_OF [U, C]")
	assert.Contains(t, first, "components.disseminationControls CONTAINS [NOFORN] negate")
	assert.NotContains(t, first, tr.OnRead[0].ID)
}

func TestDescribeMarksNullDeny(t *testing.T) {
	tr, err := NewTypeRestriction(Wildcard, KindEdge)
	require.NoError(t, err)
	tr.OnRead = []*Expression{And(
		MustPredicate("components.releasableTo", OpAnyIn, []string{"USA"}, WithNullPolicy(false)),
	)}

	dump := Describe(&Policy{DatabaseMatch: "x", Restrictions: []*TypeRestriction{tr}})
	assert.Contains(t, dump, "components.releasableTo ANY_IN [USA] null=deny")
}
