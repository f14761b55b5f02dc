package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visioncreator-works/nango/internal/ir"
)

const legacyDoc = `
integrations:
  demo-github:
    github-issues:
      runs: every half hour
      returns:
        - GithubIssue
    issue-count:
      type: action
      returns: Counts
models:
  GithubIssue:
    id: string
    title: string
    author: string
  Counts:
    open: number
    closed: number
`

const structuredDoc = `
integrations:
  demo-github:
    syncs:
      github-issues:
        runs: every half hour
        endpoint: GET /issues
        output: GithubIssue
        sync_type: incremental
        track_deletes: true
        webhook-subscriptions:
          - issues
    actions:
      create-issue:
        endpoint: POST /issues
        input: IssueInput
        output: GithubIssue
models:
  GithubIssue:
    id: string
    title: string
  IssueInput:
    title: string
`

func TestParseLegacyDialect(t *testing.T) {
	cfg, err := Parse([]byte(legacyDoc))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	integration, ok := cfg.Integration("demo-github")
	require.True(t, ok)
	require.Len(t, integration.Operations, 2)

	sync, ok := integration.Operation("github-issues")
	require.True(t, ok)
	assert.Equal(t, ir.KindSync, sync.Kind)
	assert.Equal(t, "every half hour", sync.Runs)
	assert.Equal(t, []string{"GithubIssue"}, sync.Outputs)

	action, ok := integration.Operation("issue-count")
	require.True(t, ok)
	assert.Equal(t, ir.KindAction, action.Kind)
	assert.Equal(t, []string{"Counts"}, action.Outputs)
}

func TestParseStructuredDialect(t *testing.T) {
	cfg, err := Parse([]byte(structuredDoc))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	integration, ok := cfg.Integration("demo-github")
	require.True(t, ok)

	sync, ok := integration.Operation("github-issues")
	require.True(t, ok)
	assert.Equal(t, ir.KindSync, sync.Kind)
	assert.Equal(t, "GET /issues", sync.Endpoint)
	assert.Equal(t, "incremental", sync.SyncType)
	assert.True(t, sync.TrackDeletes)
	assert.Equal(t, []string{"issues"}, sync.WebhookSubscriptions)

	action, ok := integration.Operation("create-issue")
	require.True(t, ok)
	assert.Equal(t, ir.KindAction, action.Kind)
	assert.Equal(t, "POST /issues", action.Endpoint)
	assert.Equal(t, "IssueInput", action.Input)
}

func TestParseModelFieldOrder(t *testing.T) {
	cfg, err := Parse([]byte(legacyDoc))
	require.NoError(t, err)

	model, ok := cfg.Model("GithubIssue")
	require.True(t, ok)
	names := make([]string, 0, len(model.Fields))
	for _, f := range model.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"id", "title", "author"}, names)
}

func TestParseEndpointMapping(t *testing.T) {
	doc := `
integrations:
  demo:
    syncs:
      tickets:
        runs: every hour
        endpoint:
          method: GET
          path: /tickets
        output: Ticket
models:
  Ticket:
    id: string
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)

	integration, _ := cfg.Integration("demo")
	sync, ok := integration.Operation("tickets")
	require.True(t, ok)
	assert.Equal(t, "GET /tickets", sync.Endpoint)
}

func TestParseStructuralViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "webhook subscriptions on an action",
			doc: `
integrations:
  demo:
    actions:
      create:
        endpoint: POST /things
        output: Thing
        webhook-subscriptions:
          - things
models:
  Thing:
    id: string
`,
		},
		{
			name: "structured sync output without endpoint",
			doc: `
integrations:
  demo:
    syncs:
      things:
        runs: every hour
        output: Thing
models:
  Thing:
    id: string
`,
		},
		{
			name: "structured action input without endpoint",
			doc: `
integrations:
  demo:
    actions:
      create:
        input: ThingInput
models:
  ThingInput:
    name: string
`,
		},
		{
			name: "structured sync without schedule",
			doc: `
integrations:
  demo:
    syncs:
      things:
        endpoint: GET /things
        output: Thing
models:
  Thing:
    id: string
`,
		},
		{
			name: "unknown key in structured operation",
			doc: `
integrations:
  demo:
    syncs:
      things:
        runs: every hour
        endpoint: GET /things
        output: Thing
        retries: 3
models:
  Thing:
    id: string
`,
		},
		{
			name: "integration key alongside syncs block",
			doc: `
integrations:
  demo:
    syncs:
      things:
        runs: every hour
        endpoint: GET /things
        output: Thing
    stray: value
models:
  Thing:
    id: string
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.doc))
			assert.Nil(t, cfg)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, ValidationMessage, verr.Error())
			assert.NotEmpty(t, verr.Detail)
		})
	}
}

func TestSyncOutputModelNeedsID(t *testing.T) {
	doc := `
integrations:
  demo:
    tickets:
      runs: every hour
      returns: Ticket
models:
  Ticket:
    subject: string
`
	cfg, err := Parse([]byte(doc))
	assert.Nil(t, cfg)
	require.Error(t, err)

	var merr *ModelInvariantError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, `Model "Ticket" doesn't have an id field. This is required to be able to uniquely identify the data record.`, merr.Error())
}

func TestActionOutputModelExemptFromID(t *testing.T) {
	doc := `
integrations:
  demo:
    count-tickets:
      type: action
      returns: Stats
models:
  Stats:
    open: number
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.NotNil(t, cfg)
}

func TestPluralModelNameIsNominal(t *testing.T) {
	// A model name ending in s is matched as written; no singularization.
	doc := `
integrations:
  demo:
    tickets:
      runs: every hour
      returns: Tickets
models:
  Tickets:
    id: string
    subject: string
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.NotNil(t, cfg)
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(legacyDoc), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Len(t, cfg.Integrations, 1)
	assert.Len(t, cfg.Models, 2)
}

func TestLoadMissingDocument(t *testing.T) {
	cfg, err := Load(t.TempDir())
	assert.Nil(t, cfg)
	require.Error(t, err)
}
