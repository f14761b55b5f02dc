package cli

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/visioncreator-works/nango/internal/compile"
)

// devDebounce coalesces editor save bursts into one recompile.
const devDebounce = 300 * time.Millisecond

// DevOptions holds flags for the dev command.
type DevOptions struct {
	*RootOptions
	Output  string
	Workers int

	toolchain compile.Toolchain
}

// NewDevCommand creates the dev command, a watch loop around compile.
func NewDevCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DevOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dev <integrations-dir>",
		Short: "Watch integration sources and recompile on change",
		Long: `Run an initial compile, then watch the schema document and every
source file for changes. Each change triggers a full recompile after a
short debounce. Stops on interrupt.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory (default <dir>/dist)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "max concurrent file compiles (default GOMAXPROCS)")

	return cmd
}

func runDev(opts *DevOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	compileOpts := compile.Options{
		Dir:       dir,
		OutDir:    opts.Output,
		Workers:   opts.Workers,
		Toolchain: opts.toolchain,
		Logger:    opts.Logger,
	}
	outDir := opts.Output
	if outDir == "" {
		outDir = defaultOutDir(dir)
	}

	runOnce := func(ctx context.Context) {
		batch, err := compile.All(ctx, compileOpts)
		if err != nil {
			code, message := classifyError(err)
			_ = formatter.Error(code, message, nil)
			return
		}
		printBatch(formatter, batch)
	}

	ctx := cmd.Context()
	runOnce(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("starting watcher: %v", err))
	}
	defer watcher.Close()

	if err := watchTree(watcher, dir, outDir); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("watching %s: %v", dir, err))
	}
	opts.Logger.Info().Str("dir", dir).Msg("watching for changes")

	var debounce *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pending:
			runOnce(ctx)
			// New directories may have appeared since the last scan.
			_ = watchTree(watcher, dir, outDir)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantChange(event, outDir) {
				continue
			}
			opts.Logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("change detected")
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(devDebounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			opts.Logger.Warn().Err(werr).Msg("watch error")
		}
	}
}

// watchTree registers dir and all its subdirectories with the watcher,
// skipping the output directory so generated artifacts never retrigger
// a compile.
func watchTree(watcher *fsnotify.Watcher, dir, outDir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if within(path, outDir) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// relevantChange reports whether an event should trigger a recompile:
// schema document or source file changes outside the output directory.
func relevantChange(event fsnotify.Event, outDir string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if within(event.Name, outDir) {
		return false
	}
	base := filepath.Base(event.Name)
	if base == "nango.yaml" || base == "nango.yml" {
		return true
	}
	return strings.HasSuffix(base, compile.SourceExt)
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}
