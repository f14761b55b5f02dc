package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visioncreator-works/nango/internal/compile"
	"github.com/visioncreator-works/nango/internal/schema"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Output string // output directory for generated declarations
}

// GenerateResult is the JSON payload of a successful generate run.
type GenerateResult struct {
	Declarations string `json:"declarations"`
	Models       int    `json:"models"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <integrations-dir>",
		Short: "Generate model declarations from nango.yaml",
		Long: `Load and validate the nango.yaml schema, then write the generated
model declarations without compiling any source files.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory (default <dir>/dist)")

	return cmd
}

func runGenerate(opts *GenerateOptions, dir string, cmd *cobra.Command) error {
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
		return NewExitError(ExitCommandError, message)
	}

	outDir := opts.Output
	if outDir == "" {
		outDir = defaultOutDir(dir)
	}
	path, err := compile.WriteDeclarations(cfg, outDir)
	if err != nil {
		code, message := classifyWriteError(err)
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, message)
	}
	if _, err := compile.WriteMetadata(cfg, dir); err != nil {
		code, message := classifyWriteError(err)
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, message)
	}

	if formatter.Format == "json" {
		return formatter.Success(GenerateResult{Declarations: path, Models: len(cfg.Models)})
	}
	fmt.Fprintf(formatter.Writer, "✓ Generated %d model declaration(s)\n", len(cfg.Models))
	fmt.Fprintf(formatter.Writer, "Wrote %s\n", path)
	return nil
}
