package compile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/visioncreator-works/nango/internal/ir"
	"github.com/visioncreator-works/nango/internal/schema"
	"github.com/visioncreator-works/nango/internal/typeexpr"
	"github.com/visioncreator-works/nango/internal/usage"
)

// DeclarationsFile is the generated declaration artifact, written to the
// output directory once per run and shared by every compiled file.
const DeclarationsFile = "models.ts"

// MetadataDir holds the machine-readable schema snapshot, written next
// to the schema document for other tooling to consume.
const MetadataDir = ".nango"

// Options configures one batch compile run.
type Options struct {
	// Dir is the directory holding the schema document and sources.
	Dir string
	// OutDir receives declarations and compiled artifacts. Defaults to
	// Dir/dist.
	OutDir string
	// Workers bounds per-file parallelism. Defaults to GOMAXPROCS.
	Workers int
	// Toolchain compiles individual files. Defaults to DefaultToolchain.
	Toolchain Toolchain
	// Logger receives per-file progress and failure events.
	Logger zerolog.Logger
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.OutDir == "" {
		opts.OutDir = filepath.Join(opts.Dir, "dist")
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Toolchain == nil {
		opts.Toolchain = DefaultToolchain()
	}
	return opts
}

// All loads the schema and compiles every discovered source file.
// Schema and declaration errors abort the run; per-file failures do not.
func All(ctx context.Context, options Options) (*ir.BatchResult, error) {
	cfg, err := schema.Load(options.Dir)
	if err != nil {
		return nil, err
	}
	return AllWithConfig(ctx, cfg, options)
}

// AllWithConfig compiles against an already-loaded schema.
func AllWithConfig(ctx context.Context, cfg *ir.NangoConfig, options Options) (*ir.BatchResult, error) {
	opts := options.withDefaults()

	// Declarations are generated once, ahead of per-file compilation,
	// and shared read-only by every file in the run.
	declPath, err := WriteDeclarations(cfg, opts.OutDir)
	if err != nil {
		return nil, err
	}
	if _, err := WriteMetadata(cfg, opts.Dir); err != nil {
		return nil, err
	}

	discovered := Discover(opts.Dir, cfg)
	warnMissingSources(cfg, discovered, opts.Logger)
	results := make([]ir.FileResult, len(discovered))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, d := range discovered {
		g.Go(func() error {
			results[i] = Single(gctx, d, cfg, declPath, opts)
			return nil
		})
	}
	_ = g.Wait()

	batch := &ir.BatchResult{RunID: uuid.NewString(), Success: true, Files: results}
	for _, r := range results {
		if !r.OK {
			batch.Success = false
		}
	}

	opts.Logger.Info().
		Str("run_id", batch.RunID).
		Int("files", len(results)).
		Bool("success", batch.Success).
		Msg("compile run finished")
	return batch, nil
}

// warnMissingSources reports every schema operation that discovery found
// no source file for. The schema may legitimately run ahead of the code,
// so this is a warning rather than a batch failure, but it must surface:
// a silently skipped operation looks exactly like a passing one.
func warnMissingSources(cfg *ir.NangoConfig, discovered []Discovered, log zerolog.Logger) {
	found := make(map[string]bool, len(discovered))
	for _, d := range discovered {
		found[d.Integration+"/"+d.Operation] = true
	}
	for _, integration := range cfg.Integrations {
		for _, op := range integration.Operations {
			if !found[integration.Name+"/"+op.Name] {
				log.Warn().
					Str("integration", integration.Name).
					Str("operation", op.Name).
					Msg("no source file for operation")
			}
		}
	}
}

// WriteDeclarations renders the model declarations and writes them to
// the output directory, returning the artifact path.
func WriteDeclarations(cfg *ir.NangoConfig, outDir string) (string, error) {
	decls, err := typeexpr.RenderModels(cfg.Models)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, DeclarationsFile)
	if err := os.WriteFile(path, []byte(decls), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// metadata is the schema snapshot shape: the normalized config enriched
// with the resolved declaration type of every operation input and output.
type metadata struct {
	Integrations []integrationMeta `json:"integrations"`
	Models       []ir.Model        `json:"models"`
}

type integrationMeta struct {
	Name       string          `json:"name"`
	Operations []operationMeta `json:"operations"`
}

type operationMeta struct {
	ir.OperationConfig
	InputType   string   `json:"inputType,omitempty"`
	OutputTypes []string `json:"outputTypes,omitempty"`
}

// WriteMetadata writes the schema snapshot under dir/.nango, returning
// the artifact path. Operation inputs and outputs are compiled in
// passthrough mode: model references and primitives resolve, anything
// else is carried as written.
func WriteMetadata(cfg *ir.NangoConfig, dir string) (string, error) {
	meta, err := buildMetadata(cfg)
	if err != nil {
		return "", err
	}
	metaDir := filepath.Join(dir, MetadataDir)
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(metaDir, "schema.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func buildMetadata(cfg *ir.NangoConfig) (*metadata, error) {
	compiler := typeexpr.NewCompiler(cfg.ModelNames())
	meta := &metadata{Models: cfg.Models}
	for _, integration := range cfg.Integrations {
		im := integrationMeta{Name: integration.Name}
		for _, op := range integration.Operations {
			om, err := resolveOpTypes(compiler, op)
			if err != nil {
				return nil, err
			}
			im.Operations = append(im.Operations, om)
		}
		meta.Integrations = append(meta.Integrations, im)
	}
	return meta, nil
}

func resolveOpTypes(c *typeexpr.Compiler, op ir.OperationConfig) (operationMeta, error) {
	om := operationMeta{OperationConfig: op}
	if op.Input != "" {
		t, err := c.CompileLoose(op.Input)
		if err != nil {
			return om, fmt.Errorf("input of operation %q: %w", op.Name, err)
		}
		om.InputType = typeexpr.Render(t)
	}
	for _, out := range op.Outputs {
		t, err := c.CompileLoose(out)
		if err != nil {
			return om, fmt.Errorf("output of operation %q: %w", op.Name, err)
		}
		om.OutputTypes = append(om.OutputTypes, typeexpr.Render(t))
	}
	return om, nil
}

// Single runs usage analysis and the toolchain for one discovered file.
// The first failing step decides the outcome and its diagnostic becomes
// the file's reason.
func Single(ctx context.Context, d Discovered, cfg *ir.NangoConfig, declPath string, opts Options) ir.FileResult {
	result := ir.FileResult{
		Path:        d.Path,
		Integration: d.Integration,
		Operation:   d.Operation,
		OK:          true,
	}
	log := opts.Logger.With().
		Str("integration", d.Integration).
		Str("operation", d.Operation).
		Str("file", d.Path).
		Logger()

	file, err := usage.ParseFile(d.Path)
	if err != nil {
		result.OK = false
		result.Reason = fmt.Sprintf("reading source: %v", err)
		log.Warn().Err(err).Msg("file skipped")
		return result
	}

	if err := CheckImports(file, d.Path, d.Root); err != nil {
		log.Warn().Err(err).Msg("import containment failed")
		return fail(result, err.Error())
	}

	violations := usage.Analyze(file, d.Kind, expectedModels(cfg, d))
	if len(violations) > 0 {
		msgs := make([]string, len(violations))
		for i, v := range violations {
			msgs[i] = v.Message
		}
		log.Warn().Strs("violations", msgs).Msg("usage analysis failed")
		return fail(result, strings.Join(msgs, "; "))
	}

	outDir, err := artifactDir(opts, d)
	if err != nil {
		return fail(result, err.Error())
	}
	compiled := opts.Toolchain.Compile(ctx, Request{
		SourcePath:   d.Path,
		Declarations: declPath,
		OutDir:       outDir,
	})
	if !compiled.OK {
		log.Warn().Str("output", compiled.Output).Msg("toolchain failed")
		return fail(result, strings.TrimSpace(compiled.Output))
	}

	log.Debug().Msg("file compiled")
	return result
}

func fail(r ir.FileResult, reason string) ir.FileResult {
	r.OK = false
	if r.Reason == "" {
		r.Reason = reason
	}
	return r
}

// artifactDir mirrors the discovered layout under the output directory.
func artifactDir(opts Options, d Discovered) (string, error) {
	rel, err := filepath.Rel(opts.Dir, filepath.Dir(d.Path))
	if err != nil {
		return "", err
	}
	dir := filepath.Join(opts.OutDir, rel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// expectedModels is the set of model names a file may legitimately
// reference: the operation's declared outputs and input, where those
// resolve to schema models.
func expectedModels(cfg *ir.NangoConfig, d Discovered) []string {
	integration, ok := cfg.Integration(d.Integration)
	if !ok {
		return nil
	}
	op, ok := integration.Operation(d.Operation)
	if !ok {
		return nil
	}
	var names []string
	for _, out := range op.Outputs {
		if _, ok := cfg.Model(out); ok {
			names = append(names, out)
		}
	}
	if op.Input != "" {
		if _, ok := cfg.Model(op.Input); ok {
			names = append(names, op.Input)
		}
	}
	return names
}
