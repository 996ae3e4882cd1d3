package enforce

import (
	"context"
	"log/slog"

	"github.com/graphmark/graphmark/internal/accm"
	"github.com/graphmark/graphmark/internal/config"
	"github.com/graphmark/graphmark/internal/document"
	"github.com/graphmark/graphmark/internal/policy"
)

// Field names on the persisted document consumed by enforcement.
const (
	// ClassificationField holds the document's classification block.
	ClassificationField = "classification"

	// MarkedField is the flag stamped by Mark. The read path uses it as a
	// fast pre-check: a document that never passed marking cannot be read
	// or deleted by ordinary users.
	MarkedField = "classificationMarked"
)

// Enforcer answers per-record authorization questions. It is stateless
// across calls; policy lookup goes through the session-caching provider.
type Enforcer struct {
	dep      *config.Deployment
	scale    *accm.Scale
	provider policy.Provider
}

// NewEnforcer builds an enforcer over the deployment configuration and a
// policy provider.
func NewEnforcer(dep *config.Deployment, provider policy.Provider) (*Enforcer, error) {
	scale, err := dep.Scale()
	if err != nil {
		return nil, err
	}
	return &Enforcer{dep: dep, scale: scale, provider: provider}, nil
}

// Bypass reports whether the user skips per-record checks for the type:
// root, service accounts, and data stewards of the type all do. The scan
// iterator computes this once per scan instead of per record.
func (e *Enforcer) Bypass(user *UserContext, typeName string) bool {
	return user.Root || user.ServiceAccount || user.IsDataSteward(typeName)
}

// Authorize decides whether the user may perform the action on the
// document. Denial is (false, nil); errors are policy-resolution or
// marking failures, which the caller treats as denial too.
//
// READ and DELETE require the classificationMarked flag: a document that
// never passed marking is invisible to ordinary users until a steward
// corrects it.
func (e *Enforcer) Authorize(ctx context.Context, database, typeName string, doc document.Object, user *UserContext, action accm.Action) (bool, error) {
	if e.Bypass(user, typeName) {
		return true, nil
	}
	if !e.dep.ClassificationEnabled(database) {
		return true, nil
	}

	if action == accm.ActionRead || action == accm.ActionDelete {
		if !marked(doc) {
			return false, accm.NewClassificationMissing(database, typeName)
		}
	}

	pol, err := e.provider.PolicyFor(ctx, user.Name, database)
	if err != nil {
		return false, err
	}
	restriction, err := pol.ResolveRestriction(typeName)
	if err != nil {
		return false, err
	}

	allowed := restriction.Authorize(action, classificationBlock(doc))
	if !allowed {
		slog.Debug("authorization denied",
			"user", user.Name, "database", database, "type", typeName, "action", string(action))
	}
	return allowed, nil
}

// AuthorizeCreate decides create access.
func (e *Enforcer) AuthorizeCreate(ctx context.Context, database, typeName string, doc document.Object, user *UserContext) (bool, error) {
	return e.Authorize(ctx, database, typeName, doc, user, accm.ActionCreate)
}

// AuthorizeRead decides read access.
func (e *Enforcer) AuthorizeRead(ctx context.Context, database, typeName string, doc document.Object, user *UserContext) (bool, error) {
	return e.Authorize(ctx, database, typeName, doc, user, accm.ActionRead)
}

// AuthorizeUpdate decides update access.
func (e *Enforcer) AuthorizeUpdate(ctx context.Context, database, typeName string, doc document.Object, user *UserContext) (bool, error) {
	return e.Authorize(ctx, database, typeName, doc, user, accm.ActionUpdate)
}

// AuthorizeDelete decides delete access.
func (e *Enforcer) AuthorizeDelete(ctx context.Context, database, typeName string, doc document.Object, user *UserContext) (bool, error) {
	return e.Authorize(ctx, database, typeName, doc, user, accm.ActionDelete)
}

// Mark runs write-time authorization and stamps the classificationMarked
// flag. Success sets the flag true. Failure aborts the write for
// interactive users; for service accounts the flag is set false and the
// error suppressed, so the record lands but stays invisible to ordinary
// readers until a steward corrects it. Root never mutates the flag.
//
// Mark is idempotent: the same document and user always yield the same
// flag value.
func (e *Enforcer) Mark(ctx context.Context, database, typeName string, doc document.Object, user *UserContext) error {
	if user.Root {
		return nil
	}
	if !e.dep.ClassificationEnabled(database) {
		return nil
	}

	action := accm.ActionCreate
	if marked(doc) {
		action = accm.ActionUpdate
	}

	allowed, err := e.authorizeWrite(ctx, database, typeName, doc, user, action)
	if allowed {
		doc.Set(MarkedField, document.Bool(true))
		return nil
	}

	if user.ServiceAccount {
		doc.Set(MarkedField, document.Bool(false))
		slog.Warn("service account wrote unmarkable document",
			"user", user.Name, "database", database, "type", typeName, "err", err)
		return nil
	}

	if err != nil {
		return err
	}
	return accm.NewNotAuthorized(database, typeName, action)
}

// authorizeWrite evaluates write authorization without the bypass: service
// accounts and stewards still run the restriction so their records get an
// honest flag value.
func (e *Enforcer) authorizeWrite(ctx context.Context, database, typeName string, doc document.Object, user *UserContext, action accm.Action) (bool, error) {
	pol, err := e.provider.PolicyFor(ctx, user.Name, database)
	if err != nil {
		return false, err
	}
	restriction, err := pol.ResolveRestriction(typeName)
	if err != nil {
		return false, err
	}
	return restriction.Authorize(action, classificationBlock(doc)), nil
}

// marked reports whether the document carries classificationMarked=true.
func marked(doc document.Object) bool {
	v, ok := doc.Resolve(MarkedField)
	if !ok {
		return false
	}
	b, ok := v.(document.Bool)
	return ok && bool(b)
}

// classificationBlock extracts the document's classification sub-object.
// A missing or malformed block evaluates as empty: predicates then resolve
// nothing and fall to their null policies.
func classificationBlock(doc document.Object) document.Object {
	v, ok := doc.Resolve(ClassificationField)
	if !ok {
		return document.Object{}
	}
	obj, ok := v.(document.Object)
	if !ok {
		return document.Object{}
	}
	return obj
}
