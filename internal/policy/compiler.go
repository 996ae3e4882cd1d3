package policy

import (
	"fmt"
	"log/slog"

	"github.com/graphmark/graphmark/internal/accm"
	"github.com/graphmark/graphmark/internal/config"
)

// Compiler converts attribute-authority responses into compiled policies.
// The scale, clamp, and home nation come from deployment configuration and
// are fixed for the process lifetime.
type Compiler struct {
	scale      *accm.Scale
	clampRank  int
	homeNation string
}

// NewCompiler builds a compiler from the deployment configuration.
func NewCompiler(dep *config.Deployment) (*Compiler, error) {
	scale, err := dep.Scale()
	if err != nil {
		return nil, fmt.Errorf("building classification scale: %w", err)
	}
	clampRank, err := scale.Rank(dep.Clamp)
	if err != nil {
		return nil, fmt.Errorf("resolving deployment clamp: %w", err)
	}
	return &Compiler{
		scale:      scale,
		clampRank:  clampRank,
		homeNation: accm.NormalizeToken(dep.HomeNation),
	}, nil
}

// Scale returns the compiler's classification scale.
func (c *Compiler) Scale() *accm.Scale { return c.scale }

// ClampRank returns the deployment clamp's rank in the scale.
func (c *Compiler) ClampRank() int { return c.clampRank }

// ReleasabilityTags derives the user's releasability tag set: their own
// nationality plus any authorized alliance tags.
func (c *Compiler) ReleasabilityTags(resp *AttributeResponse) []string {
	tags := make([]string, 0, 3)
	if nat := accm.NormalizeToken(resp.Nationality); nat != "" {
		tags = append(tags, nat)
	}
	if resp.FveyAuthorized {
		tags = append(tags, TagFVEY)
	}
	if resp.AcguAuthorized {
		tags = append(tags, TagACGU)
	}
	return tags
}

// Compile turns an attribute response into one policy per known database.
// Restrictions are currently database-agnostic wildcards; the per-database
// shape exists so future policy can differ per database. A clearance
// outside the scale is INVALID_CLASSIFICATION and aborts compilation.
func (c *Compiler) Compile(resp *AttributeResponse, knownDatabases []string) ([]*accm.Policy, error) {
	clearanceRank, err := c.scale.Rank(resp.Clearance)
	if err != nil {
		return nil, fmt.Errorf("user clearance: %w", err)
	}

	// The clamp caps the allow-list regardless of clearance.
	effective := clearanceRank
	if c.clampRank < effective {
		effective = c.clampRank
	}
	allow := c.scale.Prefix(effective)
	tags := c.ReleasabilityTags(resp)

	preds := make([]*accm.Predicate, 0, 4)

	classPred, err := accm.NewPredicate(FieldClassification, accm.OpAnyOf, allow)
	if err != nil {
		return nil, fmt.Errorf("classification predicate: %w", err)
	}
	preds = append(preds, classPred)

	if !resp.NoForeignAccess || len(tags) == 0 {
		noforn, err := accm.NewPredicate(FieldDissemControls, accm.OpContains,
			[]string{MarkingNoForeign}, accm.WithNegate())
		if err != nil {
			return nil, fmt.Errorf("dissemination predicate: %w", err)
		}
		preds = append(preds, noforn)
	}

	// A document without a releasableTo list defaults to visible only for
	// home-nation users.
	relOpts := []accm.PredicateOption{}
	if accm.NormalizeToken(resp.Nationality) != c.homeNation {
		relOpts = append(relOpts, accm.WithNullPolicy(false))
	}
	releasable, err := accm.NewPredicate(FieldReleasableTo, accm.OpAnyIn, tags, relOpts...)
	if err != nil {
		return nil, fmt.Errorf("releasability predicate: %w", err)
	}
	preds = append(preds, releasable)

	outer := accm.And(preds...)

	if !resp.CompartmentAccess {
		// No compartment access at all rejects anything flagged as
		// compartmented.
		reject, err := accm.NewPredicate(FieldNonICMarkings, accm.OpContains,
			[]string{MarkingCompartmented}, accm.WithNegate())
		if err != nil {
			return nil, fmt.Errorf("compartment reject predicate: %w", err)
		}
		outer.Predicates = append(outer.Predicates, reject)
	} else {
		combos, err := c.compartmentCombinations(resp.Readons())
		if err != nil {
			return nil, err
		}
		outer.Group(combos)
	}

	restrictions, err := wildcardRestrictions(outer)
	if err != nil {
		return nil, err
	}

	if len(knownDatabases) == 0 {
		knownDatabases = []string{accm.Wildcard}
	}
	policies := make([]*accm.Policy, 0, len(knownDatabases))
	for _, db := range knownDatabases {
		policies = append(policies, &accm.Policy{
			DatabaseMatch: db,
			Roles:         resp.RoleMappings,
			Attributes:    resp.UserAttributes,
			Restrictions:  restrictions,
		})
	}

	slog.Debug("compiled policy",
		"clearance", resp.Clearance,
		"allow_levels", len(allow),
		"tags", tags,
		"databases", len(policies))
	return policies, nil
}

// compartmentCombinations builds the OR over ALL_IN predicates, one per
// subset of the user's readon list, enumerated in bitmask order starting
// with the empty subset. A document passes when its required-compartment
// list is covered by some combination the user holds. The empty subset
// matches only documents that require nothing.
func (c *Compiler) compartmentCombinations(readons []string) (*accm.Expression, error) {
	or := accm.Or()
	for mask := 0; mask < (1 << len(readons)); mask++ {
		subset := make([]string, 0, len(readons))
		for i, readon := range readons {
			if mask&(1<<i) != 0 {
				subset = append(subset, readon)
			}
		}
		pred, err := accm.NewPredicate(FieldProgramNames, accm.OpAllIn, subset)
		if err != nil {
			return nil, fmt.Errorf("compartment combination predicate: %w", err)
		}
		or.Predicates = append(or.Predicates, pred)
	}
	return or, nil
}

// wildcardRestrictions installs the outer expression on every action of a
// wildcard restriction for vertices and for edges.
func wildcardRestrictions(outer *accm.Expression) ([]*accm.TypeRestriction, error) {
	kinds := []accm.GraphKind{accm.KindVertex, accm.KindEdge}
	out := make([]*accm.TypeRestriction, 0, len(kinds))
	for _, kind := range kinds {
		tr, err := accm.NewTypeRestriction(accm.Wildcard, kind)
		if err != nil {
			return nil, fmt.Errorf("wildcard restriction: %w", err)
		}
		tr.SetAll(outer)
		out = append(out, tr)
	}
	return out, nil
}
