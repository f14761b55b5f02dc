package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/visioncreator-works/nango/internal/compile"
	"github.com/visioncreator-works/nango/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output  string
	Workers int

	// toolchain overrides the default tsc invocation; used by tests.
	toolchain compile.Toolchain
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <integrations-dir>",
		Short: "Compile all integration source files",
		Long: `Load the nango.yaml schema, generate model declarations, then
analyze and compile every discovered sync and action source file. A
failing file does not stop the run; every failure is reported.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory (default <dir>/dist)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "max concurrent file compiles (default GOMAXPROCS)")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	batch, err := compile.All(cmd.Context(), compile.Options{
		Dir:       dir,
		OutDir:    opts.Output,
		Workers:   opts.Workers,
		Toolchain: opts.toolchain,
		Logger:    opts.Logger,
	})
	if err != nil {
		code, message := classifyError(err)
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, message)
	}

	if !batch.Success {
		message := fmt.Sprintf("%d file(s) failed to compile", len(batch.Failed()))
		if formatter.Format == "json" {
			_ = formatter.Error(ErrCodeCompile, message, batch)
		} else {
			printBatch(formatter, batch)
		}
		return NewExitError(ExitFailure, message)
	}

	if formatter.Format == "json" {
		return formatter.Success(batch)
	}
	printBatch(formatter, batch)
	return nil
}

func printBatch(f *OutputFormatter, batch *ir.BatchResult) {
	for _, file := range batch.Files {
		if file.OK {
			f.VerboseLog("✓ %s/%s (%s)", file.Integration, file.Operation, file.Path)
			continue
		}
		fmt.Fprintf(f.Writer, "✗ %s/%s: %s\n", file.Integration, file.Operation, file.Reason)
	}
	if batch.Success {
		fmt.Fprintf(f.Writer, "✓ Compiled %d file(s)\n", len(batch.Files))
	} else {
		fmt.Fprintf(f.Writer, "✗ %d of %d file(s) failed\n", len(batch.Failed()), len(batch.Files))
	}
}

// defaultOutDir is where generated artifacts land when -o is not given.
func defaultOutDir(dir string) string {
	return filepath.Join(dir, "dist")
}
