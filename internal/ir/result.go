package ir

// UsageRule identifies which call-site contract a source file violated.
type UsageRule string

const (
	// RuleUnawaitedCall: a platform call at statement level was neither
	// awaited, returned, nor guarded by try/catch.
	RuleUnawaitedCall UsageRule = "unawaited_call"
	// RuleSyncReturnsValue: a sync handler returned a non-empty value at
	// its top level.
	RuleSyncReturnsValue UsageRule = "sync_returns_value"
	// RuleRetryOnWithoutRetries: a call passed retryOn without retries in
	// the same option object.
	RuleRetryOnWithoutRetries UsageRule = "retryon_without_retries"
	// RuleUnknownModel: the file referenced a model name the schema does
	// not declare for this operation.
	RuleUnknownModel UsageRule = "unknown_model"
)

// Violation is one broken usage rule with enough context for diagnostics.
type Violation struct {
	Rule    UsageRule `json:"rule"`
	Message string    `json:"message"`
	Line    int       `json:"line,omitempty"`
}

// FileUsageResult is the per-file outcome of usage analysis. Ephemeral;
// produced and consumed within one analyzer invocation.
type FileUsageResult struct {
	Path       string      `json:"path"`
	OK         bool        `json:"ok"`
	Violations []Violation `json:"violations,omitempty"`
}

// FileResult is the per-file outcome of one orchestrated compile.
type FileResult struct {
	Path        string `json:"path"`
	Integration string `json:"integration"`
	Operation   string `json:"operation"`
	OK          bool   `json:"ok"`
	Reason      string `json:"reason,omitempty"`
}

// BatchResult aggregates a whole compile run. Success is the logical AND
// of all per-file results; the run never stops early, so every failing
// file surfaces its diagnostic.
type BatchResult struct {
	RunID   string       `json:"run_id"`
	Success bool         `json:"success"`
	Files   []FileResult `json:"files"`
}

// Failed returns the subset of file results that did not pass.
func (b *BatchResult) Failed() []FileResult {
	var out []FileResult
	for _, f := range b.Files {
		if !f.OK {
			out = append(out, f)
		}
	}
	return out
}
