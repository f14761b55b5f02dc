package compile

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visioncreator-works/nango/internal/ir"
	"github.com/visioncreator-works/nango/internal/schema"
)

// fakeToolchain records requests and fails the configured paths, so the
// orchestrator can be exercised without tsc installed.
type fakeToolchain struct {
	mu   sync.Mutex
	reqs []Request
	fail map[string]bool
}

func (f *fakeToolchain) Compile(_ context.Context, req Request) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.fail[filepath.Base(req.SourcePath)] {
		return Result{OK: false, Output: "error TS2304: Cannot find name 'nonsense'."}
	}
	return Result{OK: true}
}

func (f *fakeToolchain) compiled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.reqs {
		out = append(out, filepath.Base(r.SourcePath))
	}
	return out
}

const goodSyncSrc = `
export default async function fetchData(nango: NangoSync) {
    const issues = await nango.get({ endpoint: '/issues' });
    await nango.batchSave(issues, 'GithubIssue');
}
`

const goodActionSrc = `
export default async function runAction(nango: NangoAction, input: any) {
    const res = await nango.post({ endpoint: '/issues', data: input });
    return res.data;
}
`

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func flatFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write(t, filepath.Join(dir, schema.FileName), `
integrations:
  demo-github:
    github-issues:
      runs: every half hour
      returns: GithubIssue
    create-issue:
      type: action
      returns: GithubIssue
models:
  GithubIssue:
    id: string
    title: string
`)
	write(t, filepath.Join(dir, "github-issues.ts"), goodSyncSrc)
	write(t, filepath.Join(dir, "create-issue.ts"), goodActionSrc)
	return dir
}

func nestedFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write(t, filepath.Join(dir, schema.FileName), `
integrations:
  demo-github:
    syncs:
      github-issues:
        runs: every half hour
        endpoint: GET /issues
        output: GithubIssue
    actions:
      create-issue:
        endpoint: POST /issues
        output: GithubIssue
models:
  GithubIssue:
    id: string
    title: string
`)
	write(t, filepath.Join(dir, "demo-github", "syncs", "github-issues.ts"), goodSyncSrc)
	write(t, filepath.Join(dir, "demo-github", "actions", "create-issue.ts"), goodActionSrc)
	return dir
}

func TestDiscoverFlatLayout(t *testing.T) {
	dir := flatFixture(t)
	cfg, err := schema.Load(dir)
	require.NoError(t, err)

	found := Discover(dir, cfg)
	require.Len(t, found, 2)
	for _, d := range found {
		assert.Equal(t, dir, d.Root)
	}
}

func TestDiscoverNestedLayout(t *testing.T) {
	dir := nestedFixture(t)
	cfg, err := schema.Load(dir)
	require.NoError(t, err)

	found := Discover(dir, cfg)
	require.Len(t, found, 2)
	for _, d := range found {
		assert.Equal(t, filepath.Join(dir, "demo-github"), d.Root)
	}
}

func TestDiscoverLayoutPerIntegration(t *testing.T) {
	// One nested and one flat integration in the same schema root.
	dir := t.TempDir()
	write(t, filepath.Join(dir, schema.FileName), `
integrations:
  nested-one:
    syncs:
      tickets:
        runs: every hour
        endpoint: GET /tickets
        output: Ticket
  flat-one:
    contacts:
      runs: every hour
      returns: Contact
models:
  Ticket:
    id: string
  Contact:
    id: string
`)
	write(t, filepath.Join(dir, "nested-one", "syncs", "tickets.ts"), goodSyncSrc)
	write(t, filepath.Join(dir, "contacts.ts"), goodSyncSrc)

	cfg, err := schema.Load(dir)
	require.NoError(t, err)

	found := Discover(dir, cfg)
	require.Len(t, found, 2)
	roots := map[string]string{}
	for _, d := range found {
		roots[d.Integration] = d.Root
	}
	assert.Equal(t, filepath.Join(dir, "nested-one"), roots["nested-one"])
	assert.Equal(t, dir, roots["flat-one"])
}

func TestAllFlatLayout(t *testing.T) {
	dir := flatFixture(t)
	tc := &fakeToolchain{}

	batch, err := All(context.Background(), Options{Dir: dir, Toolchain: tc, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.True(t, batch.Success)
	assert.NotEmpty(t, batch.RunID)
	assert.Len(t, batch.Files, 2)
	assert.ElementsMatch(t, []string{"github-issues.ts", "create-issue.ts"}, tc.compiled())

	decls, err := os.ReadFile(filepath.Join(dir, "dist", DeclarationsFile))
	require.NoError(t, err)
	assert.Contains(t, string(decls), "export interface GithubIssue")
}

func TestAllWritesMetadata(t *testing.T) {
	dir := flatFixture(t)
	tc := &fakeToolchain{}

	_, err := All(context.Background(), Options{Dir: dir, Toolchain: tc, Logger: zerolog.Nop()})
	require.NoError(t, err)

	meta, err := os.ReadFile(filepath.Join(dir, MetadataDir, "schema.json"))
	require.NoError(t, err)
	assert.Contains(t, string(meta), `"GithubIssue"`)
	assert.Contains(t, string(meta), `"github-issues"`)
	assert.Contains(t, string(meta), `"outputTypes"`)
}

func TestWriteMetadataResolvesOperationTypes(t *testing.T) {
	cfg, err := schema.Parse([]byte(`
integrations:
  demo-github:
    syncs:
      github-issues:
        runs: every half hour
        endpoint: GET /issues
        output: GithubIssue
    actions:
      create-issue:
        endpoint: POST /issues
        input: IssueInput
        output: CreateResponse
models:
  GithubIssue:
    id: string
    title: string
  IssueInput:
    title: string
`))
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := WriteMetadata(cfg, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var meta struct {
		Integrations []struct {
			Name       string `json:"name"`
			Operations []struct {
				Name        string   `json:"name"`
				InputType   string   `json:"inputType"`
				OutputTypes []string `json:"outputTypes"`
			} `json:"operations"`
		} `json:"integrations"`
	}
	require.NoError(t, json.Unmarshal(data, &meta))
	require.Len(t, meta.Integrations, 1)
	require.Len(t, meta.Integrations[0].Operations, 2)

	sync := meta.Integrations[0].Operations[0]
	assert.Equal(t, "github-issues", sync.Name)
	assert.Equal(t, []string{"GithubIssue"}, sync.OutputTypes)

	// Undeclared action types are carried as written by passthrough.
	action := meta.Integrations[0].Operations[1]
	assert.Equal(t, "IssueInput", action.InputType)
	assert.Equal(t, []string{"CreateResponse"}, action.OutputTypes)
}

func TestWriteMetadataRejectsBadOperationType(t *testing.T) {
	cfg := &ir.NangoConfig{
		Integrations: []ir.Integration{{
			Name: "demo-github",
			Operations: []ir.OperationConfig{{
				Name:    "create-issue",
				Kind:    ir.KindAction,
				Outputs: []string{"GithubIssue,"},
			}},
		}},
	}

	_, err := WriteMetadata(cfg, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `output of operation "create-issue"`)
}

func TestAllWarnsOnMissingSource(t *testing.T) {
	dir := flatFixture(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "create-issue.ts")))

	var logBuf bytes.Buffer
	tc := &fakeToolchain{}
	batch, err := All(context.Background(), Options{Dir: dir, Toolchain: tc, Logger: zerolog.New(&logBuf)})
	require.NoError(t, err)

	// The remaining file still compiles and the batch passes, but the
	// operation without a source is called out.
	assert.True(t, batch.Success)
	assert.Len(t, batch.Files, 1)
	assert.Contains(t, logBuf.String(), "no source file for operation")
	assert.Contains(t, logBuf.String(), "create-issue")
}

func TestAllNestedLayout(t *testing.T) {
	dir := nestedFixture(t)
	tc := &fakeToolchain{}

	batch, err := All(context.Background(), Options{Dir: dir, Toolchain: tc, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.True(t, batch.Success)

	// Artifact directories mirror the discovered layout.
	for _, req := range tc.reqs {
		rel, relErr := filepath.Rel(filepath.Join(dir, "dist"), req.OutDir)
		require.NoError(t, relErr)
		assert.Contains(t, []string{
			filepath.Join("demo-github", "syncs"),
			filepath.Join("demo-github", "actions"),
		}, rel)
	}
}

func TestAllSchemaErrorAborts(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, schema.FileName), `
integrations:
  demo:
    tickets:
      runs: every hour
      returns: Ticket
models:
  Ticket:
    subject: string
`)
	batch, err := All(context.Background(), Options{Dir: dir, Toolchain: &fakeToolchain{}, Logger: zerolog.Nop()})
	assert.Nil(t, batch)
	var merr *schema.ModelInvariantError
	require.ErrorAs(t, err, &merr)
}

func TestAllFieldExpressionErrorAborts(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, schema.FileName), `
integrations:
  demo:
    tickets:
      runs: every hour
      returns: Ticket
models:
  Ticket:
    id: string
    status: "'open' | 'closed';"
`)
	batch, err := All(context.Background(), Options{Dir: dir, Toolchain: &fakeToolchain{}, Logger: zerolog.Nop()})
	assert.Nil(t, batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ends with a comma or semicolon")
}

func TestUsageFailureDoesNotAbortBatch(t *testing.T) {
	dir := flatFixture(t)
	write(t, filepath.Join(dir, "github-issues.ts"), `
export default async function fetchData(nango: NangoSync) {
    nango.batchSave(records, 'GithubIssue');
}
`)
	tc := &fakeToolchain{}
	batch, err := All(context.Background(), Options{Dir: dir, Toolchain: tc, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.False(t, batch.Success)
	require.Len(t, batch.Files, 2)

	failed := batch.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "github-issues", failed[0].Operation)
	assert.Contains(t, failed[0].Reason, "must be awaited")

	// The failing file never reaches the toolchain; its sibling does.
	assert.Equal(t, []string{"create-issue.ts"}, tc.compiled())
}

func TestImportEscapeFailsFileOnly(t *testing.T) {
	dir := nestedFixture(t)
	write(t, filepath.Join(dir, "demo-github", "syncs", "github-issues.ts"), `
import { secrets } from '../../other-integration/config';

export default async function fetchData(nango: NangoSync) {
    await nango.batchSave(records, 'GithubIssue');
}
`)
	tc := &fakeToolchain{}
	batch, err := All(context.Background(), Options{Dir: dir, Toolchain: tc, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.False(t, batch.Success)

	failed := batch.Failed()
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Reason, "escapes the integration directory")

	// The sibling action still compiles.
	assert.Equal(t, []string{"create-issue.ts"}, tc.compiled())
}

func TestToolchainFailureSoursFile(t *testing.T) {
	dir := flatFixture(t)
	tc := &fakeToolchain{fail: map[string]bool{"create-issue.ts": true}}

	batch, err := All(context.Background(), Options{Dir: dir, Toolchain: tc, Logger: zerolog.Nop()})
	require.NoError(t, err)
	assert.False(t, batch.Success)

	failed := batch.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "create-issue", failed[0].Operation)
	assert.Contains(t, failed[0].Reason, "TS2304")
}

func TestWriteDeclarationsIdempotent(t *testing.T) {
	dir := flatFixture(t)
	cfg, err := schema.Load(dir)
	require.NoError(t, err)

	out := filepath.Join(dir, "dist")
	path, err := WriteDeclarations(cfg, out)
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = WriteDeclarations(cfg, out)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExpectedModelsResolveDeclaredOnly(t *testing.T) {
	dir := flatFixture(t)
	cfg, err := schema.Load(dir)
	require.NoError(t, err)

	d := Discovered{Integration: "demo-github", Operation: "github-issues", Kind: ir.KindSync}
	assert.Equal(t, []string{"GithubIssue"}, expectedModels(cfg, d))
}
