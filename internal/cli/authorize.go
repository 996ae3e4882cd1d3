package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/graphmark/graphmark/internal/accm"
	"github.com/graphmark/graphmark/internal/config"
	"github.com/graphmark/graphmark/internal/document"
	"github.com/graphmark/graphmark/internal/enforce"
	"github.com/graphmark/graphmark/internal/policy"
)

// AuthorizeOptions holds flags for the authorize command.
type AuthorizeOptions struct {
	AttrsPath string
	ConfigDir string
	DocPath   string
	Action    string
	TypeName  string
	Database  string
}

// NewAuthorizeCommand creates the authorize command: one document, one
// user, one action, one answer.
func NewAuthorizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuthorizeOptions{}

	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Check one document against a user's compiled policy",
		Long:  "Compiles the user's policy from an attribute response and evaluates a single action on a document.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthorize(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.AttrsPath, "attrs", "", "path to attribute response JSON (required)")
	cmd.Flags().StringVar(&opts.ConfigDir, "config", "", "path to deployment config directory (required)")
	cmd.Flags().StringVar(&opts.DocPath, "doc", "", "path to document JSON (required)")
	cmd.Flags().StringVar(&opts.Action, "action", "read", "action to check (create|read|update|delete)")
	cmd.Flags().StringVar(&opts.TypeName, "type", "Document", "document type name")
	cmd.Flags().StringVar(&opts.Database, "db", accm.Wildcard, "database name")
	cmd.MarkFlagRequired("attrs")
	cmd.MarkFlagRequired("config")
	cmd.MarkFlagRequired("doc")

	return cmd
}

func runAuthorize(cmd *cobra.Command, rootOpts *RootOptions, opts *AuthorizeOptions) error {
	attrs, err := loadAttributes(opts.AttrsPath)
	if err != nil {
		return err
	}

	dep, err := config.Load(opts.ConfigDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	docData, err := os.ReadFile(opts.DocPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "reading document", err)
	}
	doc, err := document.Decode(docData)
	if err != nil {
		return WrapExitError(ExitCommandError, "parsing document", err)
	}

	compiler, err := policy.NewCompiler(dep)
	if err != nil {
		return WrapExitError(ExitCommandError, "building compiler", err)
	}

	const username = "cli-user"
	authority := policy.AuthorityFunc(func(context.Context, string) (*policy.AttributeResponse, error) {
		return attrs, nil
	})
	provider := policy.NewCachingProvider(authority, compiler, []string{opts.Database})

	enforcer, err := enforce.NewEnforcer(dep, provider)
	if err != nil {
		return WrapExitError(ExitCommandError, "building enforcer", err)
	}

	user, err := enforce.UserFromAttributes(username, attrs, compiler.Scale())
	if err != nil {
		return WrapExitError(ExitFailure, "building user context", err)
	}

	allowed, authErr := enforcer.Authorize(cmd.Context(), opts.Database, opts.TypeName, doc, user, accm.Action(opts.Action))

	out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	if out.IsJSON() {
		payload := map[string]any{
			"action":  opts.Action,
			"allowed": allowed,
		}
		if authErr != nil {
			payload["error"] = authErr.Error()
		}
		if err := out.PrintJSON(payload); err != nil {
			return err
		}
	} else {
		if allowed {
			out.Printf("allowed\n")
		} else if authErr != nil {
			out.Printf("denied: %v\n", authErr)
		} else {
			out.Printf("denied\n")
		}
	}

	if !allowed {
		return NewExitError(ExitFailure, "authorization denied")
	}
	return nil
}
