package ir

// OperationKind distinguishes scheduled syncs from caller-invoked actions.
type OperationKind string

const (
	// KindSync is a scheduled operation that ingests records into
	// uniquely identified, deduplicated model instances.
	KindSync OperationKind = "sync"
	// KindAction is a one-shot, caller-invoked operation that returns a
	// value and carries no dedup requirement.
	KindAction OperationKind = "action"
)

// NangoConfig is the root of the loaded schema. Immutable after load;
// consumed read-only by codegen and the compile orchestrator.
type NangoConfig struct {
	Integrations []Integration `json:"integrations"`
	Models       []Model       `json:"models"`
}

// Integration is a named collection of operations.
type Integration struct {
	Name       string            `json:"name"`
	Operations []OperationConfig `json:"operations"`
}

// OperationConfig describes one sync or action. Endpoint, Input and the
// structured flags are only populated by the structured (v2) dialect; the
// legacy dialect carries name, schedule and outputs.
type OperationConfig struct {
	Name                 string        `json:"name"`
	Kind                 OperationKind `json:"type"`
	Description          string        `json:"description,omitempty"`
	Runs                 string        `json:"runs,omitempty"`
	Endpoint             string        `json:"endpoint,omitempty"`
	Input                string        `json:"input,omitempty"`
	Outputs              []string      `json:"output,omitempty"`
	Scopes               []string      `json:"scopes,omitempty"`
	WebhookSubscriptions []string      `json:"webhook_subscriptions,omitempty"`
	SyncType             string        `json:"sync_type,omitempty"`
	TrackDeletes         bool          `json:"track_deletes,omitempty"`
	AutoStart            *bool         `json:"auto_start,omitempty"`
}

// Model is an ordered mapping from field name to raw type expression.
// Field order is preserved from the schema document so generated
// declarations are byte-identical across runs.
type Model struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Field is one model field with its raw, unparsed type expression.
type Field struct {
	Name string `json:"name"`
	Raw  string `json:"type"`
}

// HasField reports whether the model declares a field with the given name.
func (m Model) HasField(name string) bool {
	for _, f := range m.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Model returns the model with the given name, if declared.
func (c *NangoConfig) Model(name string) (Model, bool) {
	for _, m := range c.Models {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}

// ModelNames returns the set of declared model names.
func (c *NangoConfig) ModelNames() map[string]bool {
	names := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		names[m.Name] = true
	}
	return names
}

// Integration returns the integration with the given name, if declared.
func (c *NangoConfig) Integration(name string) (Integration, bool) {
	for _, i := range c.Integrations {
		if i.Name == name {
			return i, true
		}
	}
	return Integration{}, false
}

// Operation returns the named operation within an integration.
func (i Integration) Operation(name string) (OperationConfig, bool) {
	for _, op := range i.Operations {
		if op.Name == name {
			return op, true
		}
	}
	return OperationConfig{}, false
}
