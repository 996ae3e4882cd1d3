package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/graphmark/graphmark/internal/accm"
	"github.com/graphmark/graphmark/internal/config"
	"github.com/graphmark/graphmark/internal/policy"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	AttrsPath string
	ConfigDir string
	Database  string
}

// NewCompileCommand creates the compile command: attribute response in,
// compiled policy dump out.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile an attribute response into a policy",
		Long:  "Reads an attribute-authority response from JSON and prints the compiled rule tree.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.AttrsPath, "attrs", "", "path to attribute response JSON (required)")
	cmd.Flags().StringVar(&opts.ConfigDir, "config", "", "path to deployment config directory (required)")
	cmd.Flags().StringVar(&opts.Database, "db", accm.Wildcard, "database to compile the policy for")
	cmd.MarkFlagRequired("attrs")
	cmd.MarkFlagRequired("config")

	return cmd
}

func runCompile(cmd *cobra.Command, rootOpts *RootOptions, opts *CompileOptions) error {
	attrs, err := loadAttributes(opts.AttrsPath)
	if err != nil {
		return err
	}

	dep, err := config.Load(opts.ConfigDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	compiler, err := policy.NewCompiler(dep)
	if err != nil {
		return WrapExitError(ExitCommandError, "building compiler", err)
	}

	policies, err := compiler.Compile(attrs, []string{opts.Database})
	if err != nil {
		return WrapExitError(ExitFailure, "compiling policy", err)
	}

	out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	if out.IsJSON() {
		return out.PrintJSON(map[string]any{
			"database": opts.Database,
			"roles":    attrs.RoleMappings,
			"dump":     accm.DescribeSet(accm.NewPolicySet(policies)),
		})
	}
	out.Printf("%s", accm.DescribeSet(accm.NewPolicySet(policies)))
	return nil
}

// loadAttributes reads an attribute-authority response from a JSON file.
func loadAttributes(path string) (*policy.AttributeResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "reading attributes", err)
	}
	var attrs policy.AttributeResponse
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, WrapExitError(ExitCommandError, "parsing attributes", err)
	}
	return &attrs, nil
}
