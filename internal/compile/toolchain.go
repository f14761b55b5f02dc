package compile

import (
	"context"
	"os/exec"
)

// Request is one language-compiler invocation: the source file plus the
// generated declarations, compiled into OutDir.
type Request struct {
	SourcePath   string
	Declarations string
	OutDir       string
}

// Result is the pass/fail outcome with the compiler's diagnostics.
type Result struct {
	OK     bool
	Output string
}

// Toolchain abstracts the underlying language compiler so the
// orchestrator can be exercised without a real toolchain installed.
type Toolchain interface {
	Compile(ctx context.Context, req Request) Result
}

// ExecToolchain shells out to the configured compiler binary per file.
type ExecToolchain struct {
	Command string
	Args    []string
}

// DefaultToolchain compiles with tsc using the settings integration
// scripts are written against.
func DefaultToolchain() *ExecToolchain {
	return &ExecToolchain{
		Command: "tsc",
		Args:    []string{"--target", "es2020", "--module", "commonjs", "--lib", "es2020", "--skipLibCheck"},
	}
}

func (t *ExecToolchain) Compile(ctx context.Context, req Request) Result {
	args := append([]string{}, t.Args...)
	args = append(args, "--outDir", req.OutDir)
	if req.Declarations != "" {
		args = append(args, req.Declarations)
	}
	args = append(args, req.SourcePath)

	out, err := exec.CommandContext(ctx, t.Command, args...).CombinedOutput()
	return Result{OK: err == nil, Output: string(out)}
}
