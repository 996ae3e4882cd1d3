package cli

import (
	"github.com/spf13/cobra"

	"github.com/graphmark/graphmark/internal/config"
)

// NewValidateCommand creates the validate command for deployment configs.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-dir>",
		Short: "Validate a deployment configuration directory",
		Long:  "Loads the CUE configuration and checks the scale, clamp, and database ceilings for consistency.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runValidate(cmd *cobra.Command, rootOpts *RootOptions, dir string) error {
	out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

	dep, err := config.Load(dir)
	if err != nil {
		if out.IsJSON() {
			out.PrintJSON(map[string]any{"valid": false, "error": err.Error()})
		}
		return WrapExitError(ExitFailure, "invalid configuration", err)
	}

	if out.IsJSON() {
		return out.PrintJSON(map[string]any{
			"valid":      true,
			"levels":     dep.Levels,
			"clamp":      dep.Clamp,
			"homeNation": dep.HomeNation,
			"databases":  len(dep.Databases),
		})
	}
	out.Printf("configuration valid: %d levels, clamp %s, home nation %s\n",
		len(dep.Levels), dep.Clamp, dep.HomeNation)
	return nil
}
