package policy

import "strings"

// Alliance tags recognized by the compiler.
const (
	TagFVEY = "FVEY"
	TagACGU = "ACGU"
)

// Marking tokens with fixed meaning in compiled rules.
const (
	MarkingNoForeign    = "NOFORN"
	MarkingCompartmented = "ACCM"
)

// Field paths into a document's classification block.
const (
	FieldClassification = "components.classification"
	FieldReleasableTo   = "components.releasableTo"
	FieldDissemControls = "components.disseminationControls"
	FieldProgramNames   = "components.programNicknames"
	FieldNonICMarkings  = "components.nonICmarkings"
)

// AttributeResponse is the JSON shape of the external attribute authority's
// answer for one user. Boolean flags arrive pre-resolved; the authority owns
// group membership and role math.
type AttributeResponse struct {
	Clearance         string `json:"clearance"`
	Nationality       string `json:"nationality"`
	FveyAuthorized    bool   `json:"fvey_authorized"`
	AcguAuthorized    bool   `json:"acgu_authorized"`
	NoForeignAccess   bool   `json:"noforn_authorized"`
	CompartmentAccess bool   `json:"compartment_access"`

	// ProgramReadons is a comma-separated list of compartment nicknames the
	// user is read on to.
	ProgramReadons string `json:"program_readons"`

	RoleMappings   []string       `json:"role_mappings"`
	UserAttributes map[string]any `json:"user_attributes"`
}

// Readons splits and normalizes the comma-separated readon list. Empty
// elements are dropped.
func (r *AttributeResponse) Readons() []string {
	if strings.TrimSpace(r.ProgramReadons) == "" {
		return nil
	}
	parts := strings.Split(r.ProgramReadons, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
