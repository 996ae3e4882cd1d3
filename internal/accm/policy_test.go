package accm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restrictionFor(t *testing.T, typeMatch string) *TypeRestriction {
	t.Helper()
	tr, err := NewTypeRestriction(typeMatch, KindAny)
	require.NoError(t, err)
	return tr
}

func TestResolveRestrictionPrecedence(t *testing.T) {
	exact := restrictionFor(t, "Report")
	pattern := restrictionFor(t, "Rep.*")
	wildcard := restrictionFor(t, Wildcard)

	// Exact beats pattern beats wildcard, regardless of registration order.
	p := &Policy{
		DatabaseMatch: "intel",
		Restrictions:  []*TypeRestriction{wildcard, pattern, exact},
	}

	got, err := p.ResolveRestriction("Report")
	require.NoError(t, err)
	assert.Same(t, exact, got)

	got, err = p.ResolveRestriction("Reply")
	require.NoError(t, err)
	assert.Same(t, pattern, got)

	got, err = p.ResolveRestriction("Cable")
	require.NoError(t, err)
	assert.Same(t, wildcard, got)
}

func TestResolveRestrictionMissingFailsClosed(t *testing.T) {
	p := &Policy{
		DatabaseMatch: "intel",
		Restrictions:  []*TypeRestriction{restrictionFor(t, "Report")},
	}

	_, err := p.ResolveRestriction("Cable")
	require.Error(t, err)
	assert.True(t, IsTypeRestrictionMissing(err))
}

func TestPolicySetResolve(t *testing.T) {
	intel := &Policy{DatabaseMatch: "intel"}
	fallback := &Policy{DatabaseMatch: Wildcard}
	set := NewPolicySet([]*Policy{fallback, intel})

	got, err := set.Resolve("intel")
	require.NoError(t, err)
	assert.Same(t, intel, got)

	got, err = set.Resolve("logistics")
	require.NoError(t, err)
	assert.Same(t, fallback, got)
}

func TestPolicySetResolveMissingFailsClosed(t *testing.T) {
	set := NewPolicySet([]*Policy{{DatabaseMatch: "intel"}})

	_, err := set.Resolve("logistics")
	require.Error(t, err)
	assert.True(t, IsPolicyMissing(err))
}

func TestErrorCodes(t *testing.T) {
	err := NewNotAuthorized("intel", "Report", ActionRead)
	assert.True(t, IsNotAuthorized(err))
	assert.False(t, IsPolicyMissing(err))
	assert.Contains(t, err.Error(), "intel")
	assert.Contains(t, err.Error(), "Report")

	assert.True(t, IsClassificationMissing(NewClassificationMissing("db", "T")))
	assert.True(t, IsInvalidClassification(NewInvalidClassification("X", []string{"U"})))
}
