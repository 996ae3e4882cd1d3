package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/graphmark/graphmark/internal/config"
	"github.com/graphmark/graphmark/internal/policy"
)

// Scenario is one YAML authorization fixture.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains the behavior the scenario pins down.
	Description string `yaml:"description,omitempty"`

	// Config is the deployment the scenario runs under.
	Config ScenarioConfig `yaml:"config"`

	// Users maps user keys to their attributes and session flags.
	Users map[string]UserSpec `yaml:"users"`

	// Documents maps document keys to their JSON bodies.
	Documents map[string]map[string]any `yaml:"documents"`

	// Steps run in order. A step either writes a document or checks an
	// authorization outcome.
	Steps []Step `yaml:"steps"`
}

// ScenarioConfig mirrors config.Deployment in YAML form.
type ScenarioConfig struct {
	Levels     []string                   `yaml:"levels"`
	Clamp      string                     `yaml:"clamp"`
	HomeNation string                     `yaml:"homeNation"`
	Databases  map[string]ScenarioDBEntry `yaml:"databases,omitempty"`
}

// ScenarioDBEntry mirrors config.Database.
type ScenarioDBEntry struct {
	ClassificationEnabled bool   `yaml:"classificationEnabled"`
	Ceiling               string `yaml:"ceiling,omitempty"`
}

// Deployment converts the scenario config into the real configuration type.
func (c ScenarioConfig) Deployment() *config.Deployment {
	dep := &config.Deployment{
		Levels:     c.Levels,
		Clamp:      c.Clamp,
		HomeNation: c.HomeNation,
	}
	if len(c.Databases) > 0 {
		dep.Databases = make(map[string]config.Database, len(c.Databases))
		for name, db := range c.Databases {
			dep.Databases[name] = config.Database{
				ClassificationEnabled: db.ClassificationEnabled,
				Ceiling:               db.Ceiling,
			}
		}
	}
	return dep
}

// UserSpec carries a scenario user's attributes plus session flags the
// attribute authority does not own.
type UserSpec struct {
	Clearance         string   `yaml:"clearance"`
	Nationality       string   `yaml:"nationality"`
	FveyAuthorized    bool     `yaml:"fvey_authorized,omitempty"`
	AcguAuthorized    bool     `yaml:"acgu_authorized,omitempty"`
	NoForeignAccess   bool     `yaml:"noforn_authorized,omitempty"`
	CompartmentAccess bool     `yaml:"compartment_access,omitempty"`
	ProgramReadons    string   `yaml:"program_readons,omitempty"`
	Root              bool     `yaml:"root,omitempty"`
	ServiceAccount    bool     `yaml:"service_account,omitempty"`
	StewardTypes      []string `yaml:"steward_types,omitempty"`
}

// Attributes converts the spec into an attribute-authority response.
func (u UserSpec) Attributes() *policy.AttributeResponse {
	return &policy.AttributeResponse{
		Clearance:         u.Clearance,
		Nationality:       u.Nationality,
		FveyAuthorized:    u.FveyAuthorized,
		AcguAuthorized:    u.AcguAuthorized,
		NoForeignAccess:   u.NoForeignAccess,
		CompartmentAccess: u.CompartmentAccess,
		ProgramReadons:    u.ProgramReadons,
	}
}

// Step is one scenario action.
type Step struct {
	// User names the acting user key.
	User string `yaml:"user"`

	// Write names a document to run the write validator on. The marking
	// mutation persists into later steps.
	Write string `yaml:"write,omitempty"`

	// WriteFails expects the write to be rejected.
	WriteFails bool `yaml:"write_fails,omitempty"`

	// Check asserts an authorization outcome.
	Check *Check `yaml:"check,omitempty"`
}

// Check asserts the outcome of one authorization question.
type Check struct {
	Doc    string `yaml:"doc"`
	Action string `yaml:"action"`
	Type   string `yaml:"type,omitempty"`
	Allow  bool   `yaml:"allow"`
}

// LoadScenario reads and validates one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// LoadScenarios reads every .yaml scenario in a directory, sorted by file
// name for stable test ordering.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario has no steps")
	}
	for i, step := range s.Steps {
		if _, ok := s.Users[step.User]; !ok {
			return fmt.Errorf("step %d references unknown user %q", i, step.User)
		}
		if step.Write == "" && step.Check == nil {
			return fmt.Errorf("step %d does nothing", i)
		}
		if step.Write != "" {
			if _, ok := s.Documents[step.Write]; !ok {
				return fmt.Errorf("step %d writes unknown document %q", i, step.Write)
			}
		}
		if step.Check != nil {
			if _, ok := s.Documents[step.Check.Doc]; !ok {
				return fmt.Errorf("step %d checks unknown document %q", i, step.Check.Doc)
			}
		}
	}
	return nil
}
