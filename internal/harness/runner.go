package harness

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/graphmark/graphmark/internal/accm"
	"github.com/graphmark/graphmark/internal/document"
	"github.com/graphmark/graphmark/internal/enforce"
	"github.com/graphmark/graphmark/internal/policy"
)

// Database scenarios run against. Restrictions are wildcards, so the name
// only has to resolve.
const scenarioDatabase = "scenario"

// Result is the outcome of a scenario run.
type Result struct {
	Pass     bool
	Failures []string
}

func (r *Result) fail(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run executes the scenario with the real compiler and enforcer. Write
// steps mutate the in-memory documents, so marking effects carry into
// later checks.
func Run(ctx context.Context, s *Scenario) (*Result, error) {
	result := &Result{Pass: true}

	dep := s.Config.Deployment()
	if err := dep.Validate(); err != nil {
		return nil, fmt.Errorf("scenario config: %w", err)
	}

	compiler, err := policy.NewCompiler(dep)
	if err != nil {
		return nil, err
	}

	authority := policy.AuthorityFunc(func(_ context.Context, username string) (*policy.AttributeResponse, error) {
		spec, ok := s.Users[username]
		if !ok {
			return nil, fmt.Errorf("unknown scenario user %q", username)
		}
		return spec.Attributes(), nil
	})
	provider := policy.NewCachingProvider(authority, compiler, []string{scenarioDatabase})

	enforcer, err := enforce.NewEnforcer(dep, provider)
	if err != nil {
		return nil, err
	}

	docs := make(map[string]document.Object, len(s.Documents))
	for key, body := range s.Documents {
		doc, err := toDocument(body)
		if err != nil {
			return nil, fmt.Errorf("document %q: %w", key, err)
		}
		docs[key] = doc
	}

	for i, step := range s.Steps {
		user, err := scenarioUser(step.User, s.Users[step.User], compiler.Scale())
		if err != nil {
			return nil, fmt.Errorf("step %d user: %w", i, err)
		}

		if step.Write != "" {
			doc := docs[step.Write]
			typeName := docType(doc)
			err := enforcer.ValidateMarkings(ctx, scenarioDatabase, typeName, doc, user, accm.ActionCreate)
			if step.WriteFails && err == nil {
				result.fail("step %d: write of %q succeeded, expected rejection", i, step.Write)
			}
			if !step.WriteFails && err != nil {
				result.fail("step %d: write of %q rejected: %v", i, step.Write, err)
			}
		}

		if step.Check != nil {
			doc := docs[step.Check.Doc]
			typeName := step.Check.Type
			if typeName == "" {
				typeName = docType(doc)
			}
			allowed, err := enforcer.Authorize(ctx, scenarioDatabase, typeName, doc, user, accm.Action(step.Check.Action))
			if err != nil {
				// Enforcement errors are denials on the check path.
				allowed = false
			}
			if allowed != step.Check.Allow {
				result.fail("step %d: %s %s on %q: got allow=%t, want %t (err=%v)",
					i, step.User, step.Check.Action, step.Check.Doc, allowed, step.Check.Allow, err)
			}
		}
	}
	return result, nil
}

// scenarioUser builds the session context for a step, applying the
// scenario-only session flags on top of the attribute-derived context.
func scenarioUser(name string, spec UserSpec, scale *accm.Scale) (*enforce.UserContext, error) {
	user, err := enforce.UserFromAttributes(name, spec.Attributes(), scale)
	if err != nil {
		return nil, err
	}
	user.Root = spec.Root
	user.ServiceAccount = spec.ServiceAccount
	user.StewardTypes = spec.StewardTypes
	return user, nil
}

// toDocument converts a YAML-decoded body into a document object. The JSON
// round trip funnels YAML's loose typing through the same strict decoder
// real documents use.
func toDocument(body map[string]any) (document.Object, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return document.Decode(data)
}

// docType reads the document's declared type, defaulting to a plain
// document type name.
func docType(doc document.Object) string {
	if v, ok := doc.Resolve("type"); ok {
		if s, ok := v.(document.String); ok {
			return string(s)
		}
	}
	return "Document"
}
