package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visioncreator-works/nango/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid        bool `json:"valid"`
	Integrations int  `json:"integrations"`
	Operations   int  `json:"operations"`
	Models       int  `json:"models"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <integrations-dir>",
		Short: "Validate nango.yaml without compiling",
		Long: `Load the nango.yaml schema, auto-detect the dialect, and run all
structural checks without generating output or compiling source files.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := schema.Load(dir)
	if err != nil {
		code, message := classifyError(err)
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitFailure, message)
	}

	operations := 0
	for _, integration := range cfg.Integrations {
		operations += len(integration.Operations)
		formatter.VerboseLog("integration %s: %d operation(s)", integration.Name, len(integration.Operations))
	}

	result := ValidationResult{
		Valid:        true,
		Integrations: len(cfg.Integrations),
		Operations:   operations,
		Models:       len(cfg.Models),
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ %d integration(s), %d operation(s), %d model(s)\n",
		result.Integrations, result.Operations, result.Models)
	return nil
}
