// Package config holds the deployment configuration for classification
// enforcement. Configuration is an explicit value threaded through
// constructors, never read from ambient process state, and is loaded from
// CUE files so deployments get schema checking and positioned errors.
package config

import (
	"fmt"

	"github.com/graphmark/graphmark/internal/accm"
)

// Database is the per-database enforcement configuration.
type Database struct {
	// ClassificationEnabled turns marking enforcement on for the database.
	// Disabled databases authorize everything.
	ClassificationEnabled bool `json:"classificationEnabled"`

	// Ceiling is the highest classification level the database may hold.
	// Empty means the deployment clamp is the only ceiling.
	Ceiling string `json:"ceiling,omitempty"`
}

// Deployment is the process-wide enforcement configuration.
type Deployment struct {
	// Levels is the classification scale, lowest sensitivity first.
	Levels []string `json:"levels"`

	// Clamp is the deployment-wide maximum classification level. Documents
	// and clearances above the clamp are always rejected regardless of user
	// attributes.
	Clamp string `json:"clamp"`

	// HomeNation is the deployment's own country code. Documents without a
	// releasability list default to visible for home-nation users.
	HomeNation string `json:"homeNation"`

	// Databases maps database names to their enforcement settings.
	// A database absent from the map has enforcement enabled with no
	// ceiling beyond the clamp.
	Databases map[string]Database `json:"databases,omitempty"`
}

// Scale builds the classification scale from the configured levels.
func (d *Deployment) Scale() (*accm.Scale, error) {
	return accm.NewScale(d.Levels)
}

// ClampRank resolves the clamp level's rank in the scale.
func (d *Deployment) ClampRank(scale *accm.Scale) (int, error) {
	return scale.Rank(d.Clamp)
}

// ClassificationEnabled reports whether enforcement is on for a database.
func (d *Deployment) ClassificationEnabled(database string) bool {
	db, ok := d.Databases[database]
	if !ok {
		return true
	}
	return db.ClassificationEnabled
}

// Ceiling returns the effective ceiling level for a database: the
// configured per-database ceiling when present, else the clamp.
func (d *Deployment) Ceiling(database string) string {
	if db, ok := d.Databases[database]; ok && db.Ceiling != "" {
		return db.Ceiling
	}
	return d.Clamp
}

// Validate checks the deployment for internal consistency: the scale must
// build, and the clamp and every ceiling must resolve in it.
func (d *Deployment) Validate() error {
	scale, err := d.Scale()
	if err != nil {
		return fmt.Errorf("levels: %w", err)
	}
	if _, err := scale.Rank(d.Clamp); err != nil {
		return fmt.Errorf("clamp: %w", err)
	}
	if d.HomeNation == "" {
		return fmt.Errorf("homeNation must not be empty")
	}
	for name, db := range d.Databases {
		if db.Ceiling == "" {
			continue
		}
		if _, err := scale.Rank(db.Ceiling); err != nil {
			return fmt.Errorf("database %q ceiling: %w", name, err)
		}
	}
	return nil
}
