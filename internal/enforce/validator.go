package enforce

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/graphmark/graphmark/internal/accm"
	"github.com/graphmark/graphmark/internal/document"
	"github.com/graphmark/graphmark/internal/policy"
)

// ValidateMarkings is the write hook run once per create/update before
// commit. It checks the document's classification block for structural and
// level validity, then marks the document.
//
// Level validity is never recovered: a classification outside the scale,
// above the deployment clamp, or above the database ceiling aborts the
// write for every caller including service accounts. A structurally
// missing block follows the Mark soft-fail rules instead, so service
// accounts can land unreviewable records flagged unmarked.
func (e *Enforcer) ValidateMarkings(ctx context.Context, database, typeName string, doc document.Object, user *UserContext, action accm.Action) error {
	if user.Root {
		return nil
	}
	if !e.dep.ClassificationEnabled(database) {
		return nil
	}
	if action != accm.ActionCreate && action != accm.ActionUpdate {
		return fmt.Errorf("markings are validated on writes, not %s", action)
	}

	block, hasBlock := doc.Resolve(ClassificationField)
	if !hasBlock {
		return e.missingMarkings(database, typeName, doc, user)
	}
	blockObj, ok := block.(document.Object)
	if !ok {
		return e.missingMarkings(database, typeName, doc, user)
	}
	if _, ok := blockObj.Resolve("components"); !ok {
		return e.missingMarkings(database, typeName, doc, user)
	}

	if err := e.checkLevel(database, blockObj); err != nil {
		return err
	}

	return e.Mark(ctx, database, typeName, doc, user)
}

// missingMarkings applies the structural-failure rules: soft-fail for
// service accounts, hard error for interactive users.
func (e *Enforcer) missingMarkings(database, typeName string, doc document.Object, user *UserContext) error {
	if user.ServiceAccount {
		doc.Set(MarkedField, document.Bool(false))
		slog.Warn("service account wrote document without classification markings",
			"user", user.Name, "database", database, "type", typeName)
		return nil
	}
	return accm.NewClassificationMissing(database, typeName)
}

// checkLevel verifies the document's classification level resolves in the
// scale and sits at or below the deployment clamp and the database
// ceiling.
func (e *Enforcer) checkLevel(database string, block document.Object) error {
	v, ok := block.Resolve(policy.FieldClassification)
	if !ok {
		// No level inside components. The restriction predicates decide
		// via their null policies.
		return nil
	}
	levelStr, ok := v.(document.String)
	if !ok {
		return accm.NewInvalidClassification(fmt.Sprintf("%v", v), e.scale.Levels())
	}

	level := accm.LevelFromMarking(string(levelStr))
	rank, err := e.scale.Rank(level)
	if err != nil {
		return err
	}

	clampRank, err := e.scale.Rank(e.dep.Clamp)
	if err != nil {
		return err
	}
	if rank > clampRank {
		return accm.NewInvalidClassification(level, e.scale.Prefix(clampRank))
	}

	ceilingRank, err := e.scale.Rank(e.dep.Ceiling(database))
	if err != nil {
		return err
	}
	if rank > ceilingRank {
		return accm.NewInvalidClassification(level, e.scale.Prefix(ceilingRank))
	}
	return nil
}
