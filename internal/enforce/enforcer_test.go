package enforce

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphmark/graphmark/internal/accm"
	"github.com/graphmark/graphmark/internal/config"
	"github.com/graphmark/graphmark/internal/document"
	"github.com/graphmark/graphmark/internal/policy"
)

const testDB = "intel"

func testDeployment() *config.Deployment {
	return &config.Deployment{
		Levels:     []string{"U", "C", "S", "TS"},
		Clamp:      "TS",
		HomeNation: "USA",
	}
}

// testRig wires a real compiler and enforcer over a fixed user table.
type testRig struct {
	enforcer *Enforcer
	scale    *accm.Scale
}

func newTestRig(t *testing.T, dep *config.Deployment, users map[string]*policy.AttributeResponse) *testRig {
	t.Helper()

	compiler, err := policy.NewCompiler(dep)
	require.NoError(t, err)

	authority := policy.AuthorityFunc(func(_ context.Context, username string) (*policy.AttributeResponse, error) {
		attrs, ok := users[username]
		if !ok {
			return nil, fmt.Errorf("unknown test user %q", username)
		}
		return attrs, nil
	})
	provider := policy.NewCachingProvider(authority, compiler, []string{testDB})

	enforcer, err := NewEnforcer(dep, provider)
	require.NoError(t, err)
	return &testRig{enforcer: enforcer, scale: compiler.Scale()}
}

func (r *testRig) user(t *testing.T, name string, attrs *policy.AttributeResponse) *UserContext {
	t.Helper()
	u, err := UserFromAttributes(name, attrs, r.scale)
	require.NoError(t, err)
	return u
}

func markedDoc(t *testing.T, componentsJSON string) document.Object {
	t.Helper()
	doc, err := document.Decode([]byte(fmt.Sprintf(
		`{"classificationMarked": true, "classification": {"components": %s}}`, componentsJSON)))
	require.NoError(t, err)
	return doc
}

func TestAuthorizeClearanceDenied(t *testing.T) {
	// Clearance S cannot read a TS document.
	attrs := &policy.AttributeResponse{Clearance: "S", Nationality: "USA"}
	rig := newTestRig(t, testDeployment(), map[string]*policy.AttributeResponse{"ana": attrs})
	user := rig.user(t, "ana", attrs)

	doc := markedDoc(t, `{"classification": "TS", "releasableTo": ["USA"]}`)
	allowed, err := rig.enforcer.AuthorizeRead(context.Background(), testDB, "Report", doc, user)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAuthorizeReleasabilityGranted(t *testing.T) {
	attrs := &policy.AttributeResponse{Clearance: "S", Nationality: "USA"}
	rig := newTestRig(t, testDeployment(), map[string]*policy.AttributeResponse{"ana": attrs})
	user := rig.user(t, "ana", attrs)

	doc := markedDoc(t, `{"classification": "C", "releasableTo": ["USA"]}`)
	allowed, err := rig.enforcer.AuthorizeRead(context.Background(), testDB, "Report", doc, user)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAuthorizeNofornDenied(t *testing.T) {
	// NOFORN rejects regardless of clearance and releasability.
	attrs := &policy.AttributeResponse{Clearance: "TS", Nationality: "USA"}
	rig := newTestRig(t, testDeployment(), map[string]*policy.AttributeResponse{"ana": attrs})
	user := rig.user(t, "ana", attrs)

	doc := markedDoc(t, `{"classification": "C", "releasableTo": ["USA"], "disseminationControls": ["NOFORN"]}`)
	allowed, err := rig.enforcer.AuthorizeRead(context.Background(), testDB, "Report", doc, user)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAuthorizeMonotonicity(t *testing.T) {
	// With everything else passing, access tracks clearance rank against
	// document rank.
	levels := []string{"U", "C", "S", "TS"}
	users := make(map[string]*policy.AttributeResponse, len(levels))
	for _, level := range levels {
		users[level] = &policy.AttributeResponse{Clearance: level, Nationality: "USA"}
	}
	rig := newTestRig(t, testDeployment(), users)

	for userRank, clearance := range levels {
		user := rig.user(t, clearance, users[clearance])
		for docRank, docLevel := range levels {
			doc := markedDoc(t, fmt.Sprintf(`{"classification": %q, "releasableTo": ["USA"]}`, docLevel))
			allowed, err := rig.enforcer.AuthorizeRead(context.Background(), testDB, "Report", doc, user)
			require.NoError(t, err)
			assert.Equal(t, docRank <= userRank, allowed,
				"clearance %s reading %s", clearance, docLevel)
		}
	}
}

func TestAuthorizeUnmarkedFailsClosed(t *testing.T) {
	attrs := &policy.AttributeResponse{Clearance: "TS", Nationality: "USA"}
	rig := newTestRig(t, testDeployment(), map[string]*policy.AttributeResponse{"ana": attrs})
	user := rig.user(t, "ana", attrs)

	doc, err := document.Decode([]byte(
		`{"classification": {"components": {"classification": "U", "releasableTo": ["USA"]}}}`))
	require.NoError(t, err)

	// READ and DELETE need the marked flag; UPDATE does not.
	for _, action := range []accm.Action{accm.ActionRead, accm.ActionDelete} {
		allowed, err := rig.enforcer.Authorize(context.Background(), testDB, "Report", doc, user, action)
		assert.False(t, allowed)
		assert.True(t, accm.IsClassificationMissing(err), "action %s", action)
	}

	allowed, err := rig.enforcer.Authorize(context.Background(), testDB, "Report", doc, user, accm.ActionUpdate)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAuthorizeBypasses(t *testing.T) {
	attrs := &policy.AttributeResponse{Clearance: "U", Nationality: "USA"}
	rig := newTestRig(t, testDeployment(), map[string]*policy.AttributeResponse{"ana": attrs})

	// A TS NOFORN document, unmarked: denied every way for a normal user.
	doc, err := document.Decode([]byte(
		`{"classification": {"components": {"classification": "TS", "disseminationControls": ["NOFORN"]}}}`))
	require.NoError(t, err)

	root := rig.user(t, "ana", attrs)
	root.Root = true
	allowed, err := rig.enforcer.AuthorizeRead(context.Background(), testDB, "Report", doc, root)
	require.NoError(t, err)
	assert.True(t, allowed)

	svc := rig.user(t, "ana", attrs)
	svc.ServiceAccount = true
	allowed, err = rig.enforcer.AuthorizeRead(context.Background(), testDB, "Report", doc, svc)
	require.NoError(t, err)
	assert.True(t, allowed)

	steward := rig.user(t, "ana", attrs)
	steward.StewardTypes = []string{"Report"}
	allowed, err = rig.enforcer.AuthorizeRead(context.Background(), testDB, "Report", doc, steward)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Stewardship is per type.
	allowed, err = rig.enforcer.AuthorizeRead(context.Background(), testDB, "Cable", doc, steward)
	require.Error(t, err)
	assert.False(t, allowed)
}

func TestAuthorizeDisabledDatabase(t *testing.T) {
	dep := testDeployment()
	dep.Databases = map[string]config.Database{
		testDB: {ClassificationEnabled: false},
	}
	attrs := &policy.AttributeResponse{Clearance: "U", Nationality: "USA"}
	rig := newTestRig(t, dep, map[string]*policy.AttributeResponse{"ana": attrs})
	user := rig.user(t, "ana", attrs)

	doc := markedDoc(t, `{"classification": "TS"}`)
	allowed, err := rig.enforcer.AuthorizeRead(context.Background(), testDB, "Report", doc, user)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMarkSuccess(t *testing.T) {
	attrs := &policy.AttributeResponse{Clearance: "S", Nationality: "USA"}
	rig := newTestRig(t, testDeployment(), map[string]*policy.AttributeResponse{"ana": attrs})
	user := rig.user(t, "ana", attrs)

	doc, err := document.Decode([]byte(
		`{"classification": {"components": {"classification": "C", "releasableTo": ["USA"]}}}`))
	require.NoError(t, err)

	require.NoError(t, rig.enforcer.Mark(context.Background(), testDB, "Report", doc, user))

	v, ok := doc.Resolve(MarkedField)
	require.True(t, ok)
	assert.Equal(t, document.Bool(true), v)
}

func TestMarkInteractiveFailureAbortsWrite(t *testing.T) {
	attrs := &policy.AttributeResponse{Clearance: "C", Nationality: "USA"}
	rig := newTestRig(t, testDeployment(), map[string]*policy.AttributeResponse{"ana": attrs})
	user := rig.user(t, "ana", attrs)

	doc, err := document.Decode([]byte(
		`{"classification": {"components": {"classification": "TS", "releasableTo": ["USA"]}}}`))
	require.NoError(t, err)

	err = rig.enforcer.Mark(context.Background(), testDB, "Report", doc, user)
	require.Error(t, err)
	assert.True(t, accm.IsNotAuthorized(err))

	// No flag lands on a failed interactive write.
	_, ok := doc.Resolve(MarkedField)
	assert.False(t, ok)
}

func TestMarkServiceAccountSoftFail(t *testing.T) {
	attrs := &policy.AttributeResponse{Clearance: "C", Nationality: "USA"}
	rig := newTestRig(t, testDeployment(), map[string]*policy.AttributeResponse{"svc": attrs})
	svc := rig.user(t, "svc", attrs)
	svc.ServiceAccount = true

	doc, err := document.Decode([]byte(
		`{"classification": {"components": {"classification": "TS", "releasableTo": ["USA"]}}}`))
	require.NoError(t, err)

	// The write succeeds but the record is flagged unmarked.
	require.NoError(t, rig.enforcer.Mark(context.Background(), testDB, "Report", doc, svc))

	v, ok := doc.Resolve(MarkedField)
	require.True(t, ok)
	assert.Equal(t, document.Bool(false), v)
}

func TestServiceAccountWriteInvisibleToReaders(t *testing.T) {
	// A service account lands an unmarkable record; an ordinary reader of
	// any clearance cannot see it afterwards.
	svcAttrs := &policy.AttributeResponse{Clearance: "C", Nationality: "USA"}
	readerAttrs := &policy.AttributeResponse{Clearance: "TS", Nationality: "USA"}
	rig := newTestRig(t, testDeployment(), map[string]*policy.AttributeResponse{
		"svc": svcAttrs, "reader": readerAttrs,
	})

	svc := rig.user(t, "svc", svcAttrs)
	svc.ServiceAccount = true
	reader := rig.user(t, "reader", readerAttrs)

	doc, err := document.Decode([]byte(
		`{"classification": {"components": {"classification": "TS", "releasableTo": ["USA"]}}}`))
	require.NoError(t, err)

	require.NoError(t, rig.enforcer.Mark(context.Background(), testDB, "Report", doc, svc))

	allowed, err := rig.enforcer.AuthorizeRead(context.Background(), testDB, "Report", doc, reader)
	assert.False(t, allowed)
	assert.True(t, accm.IsClassificationMissing(err))
}

func TestMarkIdempotent(t *testing.T) {
	attrs := &policy.AttributeResponse{Clearance: "S", Nationality: "USA"}
	rig := newTestRig(t, testDeployment(), map[string]*policy.AttributeResponse{"ana": attrs})
	user := rig.user(t, "ana", attrs)

	doc, err := document.Decode([]byte(
		`{"classification": {"components": {"classification": "C", "releasableTo": ["USA"]}}}`))
	require.NoError(t, err)

	require.NoError(t, rig.enforcer.Mark(context.Background(), testDB, "Report", doc, user))
	first, _ := doc.Resolve(MarkedField)

	require.NoError(t, rig.enforcer.Mark(context.Background(), testDB, "Report", doc, user))
	second, _ := doc.Resolve(MarkedField)

	assert.Equal(t, first, second)
}

func TestMarkRootLeavesFlagAlone(t *testing.T) {
	attrs := &policy.AttributeResponse{Clearance: "U", Nationality: "USA"}
	rig := newTestRig(t, testDeployment(), map[string]*policy.AttributeResponse{"ana": attrs})
	root := rig.user(t, "ana", attrs)
	root.Root = true

	doc := document.Object{}
	require.NoError(t, rig.enforcer.Mark(context.Background(), testDB, "Report", doc, root))

	_, ok := doc.Resolve(MarkedField)
	assert.False(t, ok)
}

func TestIsDataSteward(t *testing.T) {
	u := &UserContext{StewardTypes: []string{"Report"}}
	assert.True(t, u.IsDataSteward("Report"))
	assert.False(t, u.IsDataSteward("Cable"))

	all := &UserContext{StewardTypes: []string{accm.Wildcard}}
	assert.True(t, all.IsDataSteward("Anything"))
}

func TestUserFromAttributes(t *testing.T) {
	scale, err := accm.NewScale([]string{"U", "C", "S", "TS"})
	require.NoError(t, err)

	u, err := UserFromAttributes("ana", &policy.AttributeResponse{
		Clearance: "S", Nationality: "usa", FveyAuthorized: true,
		CompartmentAccess: true, ProgramReadons: "APPLE, PEAR",
	}, scale)
	require.NoError(t, err)

	assert.Equal(t, 2, u.ClearanceRank)
	assert.Equal(t, "USA", u.Nationality)
	assert.Equal(t, []string{"USA", "FVEY"}, u.ReleasabilityTags)
	assert.Equal(t, []string{"APPLE", "PEAR"}, u.CompartmentReadons)

	_, err = UserFromAttributes("ana", &policy.AttributeResponse{Clearance: "ULTRA"}, scale)
	assert.True(t, accm.IsInvalidClassification(err))
}
