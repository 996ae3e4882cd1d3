package enforce

import (
	"github.com/graphmark/graphmark/internal/accm"
	"github.com/graphmark/graphmark/internal/policy"
)

// UserContext is the ephemeral security context for one authenticated
// session. It is built once at session setup and read-only afterwards.
type UserContext struct {
	Name string

	// Root bypasses enforcement entirely, including marking mutation.
	Root bool

	// ServiceAccount writes are never aborted by marking failures; the
	// record is flagged unmarked instead and stays invisible to ordinary
	// readers.
	ServiceAccount bool

	ClearanceRank      int
	Nationality        string
	ReleasabilityTags  []string
	NoForeignAccess    bool
	CompartmentAccess  bool
	CompartmentReadons []string

	// StewardTypes lists document types the user stewards. Stewards see
	// unmarked and mis-marked documents of their types.
	StewardTypes []string
}

// IsDataSteward reports whether the user stewards the given document type.
// A wildcard entry stewards every type.
func (u *UserContext) IsDataSteward(typeName string) bool {
	for _, t := range u.StewardTypes {
		if t == accm.Wildcard || t == typeName {
			return true
		}
	}
	return false
}

// UserFromAttributes derives a session context from an attribute-authority
// response. The clearance must resolve in the scale.
func UserFromAttributes(name string, attrs *policy.AttributeResponse, scale *accm.Scale) (*UserContext, error) {
	rank, err := scale.Rank(attrs.Clearance)
	if err != nil {
		return nil, err
	}
	tags := []string{accm.NormalizeToken(attrs.Nationality)}
	if attrs.FveyAuthorized {
		tags = append(tags, policy.TagFVEY)
	}
	if attrs.AcguAuthorized {
		tags = append(tags, policy.TagACGU)
	}
	return &UserContext{
		Name:               name,
		ClearanceRank:      rank,
		Nationality:        accm.NormalizeToken(attrs.Nationality),
		ReleasabilityTags:  tags,
		NoForeignAccess:    attrs.NoForeignAccess,
		CompartmentAccess:  attrs.CompartmentAccess,
		CompartmentReadons: attrs.Readons(),
	}, nil
}
