package harness

import (
	"sort"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/graphmark/graphmark/internal/accm"
	"github.com/graphmark/graphmark/internal/policy"
)

// PolicyGolden compiles every user in the scenario and compares the text
// dumps against testdata/{scenario.Name}.golden. Expression IDs are
// excluded from the dump, so the snapshot is stable across compilations.
//
// Regenerate with:
//
//	go test ./internal/harness -update
func PolicyGolden(t *testing.T, s *Scenario) {
	t.Helper()

	dep := s.Config.Deployment()
	compiler, err := policy.NewCompiler(dep)
	if err != nil {
		t.Fatalf("building compiler: %v", err)
	}

	names := make([]string, 0, len(s.Users))
	for name := range s.Users {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		policies, err := compiler.Compile(s.Users[name].Attributes(), []string{scenarioDatabase})
		if err != nil {
			t.Fatalf("compiling policy for %s: %v", name, err)
		}
		b.WriteString("user " + name + "\n")
		b.WriteString(accm.DescribeSet(accm.NewPolicySet(policies)))
		b.WriteString("\n")
	}

	g := goldie.New(t)
	g.Assert(t, s.Name, []byte(b.String()))
}
