package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/visioncreator-works/nango/internal/ir"
)

// FileName is the canonical schema document name. FileNameAlt is accepted
// as a fallback.
const (
	FileName    = "nango.yaml"
	FileNameAlt = "nango.yml"
)

// Load reads the schema document from dir, detects the dialect per
// integration, normalizes into the IR and validates it. On any violation
// the returned config is nil; a non-nil config always passed validation.
func Load(dir string) (*ir.NangoConfig, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		path = filepath.Join(dir, FileNameAlt)
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading schema document: %w", err)
	}
	return Parse(data)
}

// Parse builds and validates the IR from raw schema document bytes.
func Parse(data []byte) (*ir.NangoConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, validationErrorf("yaml parse: %v", err)
	}
	root := resolve(&doc)
	if root != nil && root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = resolve(root.Content[0])
	}
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, validationErrorf("document root must be a mapping")
	}

	cfg := &ir.NangoConfig{}
	for key, val := range entries(root) {
		switch key {
		case "integrations":
			integrations, err := parseIntegrations(val)
			if err != nil {
				return nil, err
			}
			cfg.Integrations = integrations
		case "models":
			models, err := parseModels(val)
			if err != nil {
				return nil, err
			}
			cfg.Models = models
		}
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseModels(n *yaml.Node) ([]ir.Model, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, validationErrorf("models must be a mapping")
	}
	var models []ir.Model
	for name, val := range entries(n) {
		val = resolve(val)
		if val == nil || val.Kind != yaml.MappingNode {
			return nil, validationErrorf("model %q must be a mapping of fields", name)
		}
		model := ir.Model{Name: ident(name)}
		for field, typ := range entries(val) {
			typ = resolve(typ)
			if typ == nil || typ.Kind != yaml.ScalarNode {
				return nil, validationErrorf("field %q of model %q must be a type expression", field, name)
			}
			model.Fields = append(model.Fields, ir.Field{Name: ident(field), Raw: typ.Value})
		}
		models = append(models, model)
	}
	return models, nil
}

func parseIntegrations(n *yaml.Node) ([]ir.Integration, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, validationErrorf("integrations must be a mapping")
	}
	var integrations []ir.Integration
	for name, val := range entries(n) {
		integration, err := parseIntegration(ident(name), val)
		if err != nil {
			return nil, err
		}
		integrations = append(integrations, integration)
	}
	return integrations, nil
}

func parseIntegration(name string, n *yaml.Node) (ir.Integration, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return ir.Integration{}, validationErrorf("integration %q must be a mapping", name)
	}
	integration := ir.Integration{Name: name}

	if isStructured(n) {
		for key, val := range entries(n) {
			switch key {
			case "syncs":
				ops, err := parseStructuredOps(name, val, ir.KindSync)
				if err != nil {
					return ir.Integration{}, err
				}
				integration.Operations = append(integration.Operations, ops...)
			case "actions":
				ops, err := parseStructuredOps(name, val, ir.KindAction)
				if err != nil {
					return ir.Integration{}, err
				}
				integration.Operations = append(integration.Operations, ops...)
			default:
				return ir.Integration{}, validationErrorf("integration %q: unexpected key %q alongside syncs/actions", name, key)
			}
		}
		return integration, nil
	}

	// Legacy dialect: operations keyed directly under the integration.
	for opName, val := range entries(n) {
		op, err := parseLegacyOp(name, ident(opName), val)
		if err != nil {
			return ir.Integration{}, err
		}
		integration.Operations = append(integration.Operations, op)
	}
	return integration, nil
}

// isStructured detects the structured dialect by shape: operations grouped
// under syncs:/actions: keys. The dialect is never flagged explicitly.
func isStructured(n *yaml.Node) bool {
	for key, val := range entries(n) {
		if (key == "syncs" || key == "actions") && resolve(val).Kind == yaml.MappingNode {
			return true
		}
	}
	return false
}

func parseLegacyOp(integration, opName string, n *yaml.Node) (ir.OperationConfig, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return ir.OperationConfig{}, validationErrorf("operation %q of %q must be a mapping", opName, integration)
	}
	op := ir.OperationConfig{Name: opName, Kind: ir.KindSync}
	for key, val := range entries(n) {
		switch key {
		case "type":
			kind, ok := scalar(val)
			if !ok || (kind != string(ir.KindSync) && kind != string(ir.KindAction)) {
				return ir.OperationConfig{}, validationErrorf("operation %q of %q: bad type", opName, integration)
			}
			op.Kind = ir.OperationKind(kind)
		case "runs":
			op.Runs, _ = scalar(val)
		case "returns", "output":
			outputs, err := stringList(val)
			if err != nil {
				return ir.OperationConfig{}, validationErrorf("operation %q of %q: returns must be a model name or list", opName, integration)
			}
			op.Outputs = outputs
		case "description":
			op.Description, _ = scalar(val)
		case "track_deletes":
			op.TrackDeletes = boolScalar(val)
		case "auto_start":
			b := boolScalar(val)
			op.AutoStart = &b
		}
		// Legacy dialect tolerates unknown keys.
	}
	return op, nil
}

func parseStructuredOps(integration string, n *yaml.Node, kind ir.OperationKind) ([]ir.OperationConfig, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, validationErrorf("%ss of %q must be a mapping", kind, integration)
	}
	var ops []ir.OperationConfig
	for opName, val := range entries(n) {
		op, err := parseStructuredOp(integration, ident(opName), val, kind)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func parseStructuredOp(integration, opName string, n *yaml.Node, kind ir.OperationKind) (ir.OperationConfig, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return ir.OperationConfig{}, validationErrorf("operation %q of %q must be a mapping", opName, integration)
	}
	op := ir.OperationConfig{Name: opName, Kind: kind}
	for key, val := range entries(n) {
		switch key {
		case "type":
			declared, _ := scalar(val)
			if declared != string(kind) {
				return ir.OperationConfig{}, validationErrorf("operation %q of %q: type %q conflicts with its %ss block", opName, integration, declared, kind)
			}
		case "runs":
			op.Runs, _ = scalar(val)
		case "endpoint":
			endpoint, err := parseEndpoint(val)
			if err != nil {
				return ir.OperationConfig{}, validationErrorf("operation %q of %q: bad endpoint", opName, integration)
			}
			op.Endpoint = endpoint
		case "description":
			op.Description, _ = scalar(val)
		case "input":
			op.Input, _ = scalar(val)
		case "output":
			outputs, err := stringList(val)
			if err != nil {
				return ir.OperationConfig{}, validationErrorf("operation %q of %q: output must be a type or list", opName, integration)
			}
			op.Outputs = outputs
		case "scopes":
			scopes, err := stringList(val)
			if err != nil {
				return ir.OperationConfig{}, validationErrorf("operation %q of %q: bad scopes", opName, integration)
			}
			op.Scopes = scopes
		case "sync_type":
			op.SyncType, _ = scalar(val)
		case "track_deletes":
			op.TrackDeletes = boolScalar(val)
		case "auto_start":
			b := boolScalar(val)
			op.AutoStart = &b
		case "webhook-subscriptions", "webhook_subscriptions":
			subs, err := stringList(val)
			if err != nil {
				return ir.OperationConfig{}, validationErrorf("operation %q of %q: bad webhook subscriptions", opName, integration)
			}
			op.WebhookSubscriptions = subs
		case "version":
			// Carried by some published schemas; not interpreted here.
		default:
			return ir.OperationConfig{}, validationErrorf("operation %q of %q: unknown key %q", opName, integration, key)
		}
	}
	// In the structured dialect an operation that declares typed
	// input/output must name the endpoint it serves; absence is a
	// validation failure, not a silent skip.
	if op.Endpoint == "" && (op.Input != "" || len(op.Outputs) > 0) {
		return ir.OperationConfig{}, validationErrorf("operation %q of %q declares input/output but no endpoint", opName, integration)
	}
	return op, nil
}

// parseEndpoint accepts "GET /issues", {method: GET, path: /issues}, or a
// list of either (multi-output syncs declare one endpoint per output).
func parseEndpoint(n *yaml.Node) (string, error) {
	n = resolve(n)
	if n == nil {
		return "", fmt.Errorf("empty endpoint")
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil
	case yaml.MappingNode:
		var method, path string
		for key, val := range entries(n) {
			switch key {
			case "method":
				method, _ = scalar(val)
			case "path":
				path, _ = scalar(val)
			}
		}
		if path == "" {
			return "", fmt.Errorf("endpoint mapping needs a path")
		}
		if method == "" {
			method = "GET"
		}
		return method + " " + path, nil
	case yaml.SequenceNode:
		var parts []string
		for _, item := range n.Content {
			part, err := parseEndpoint(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		if len(parts) == 0 {
			return "", fmt.Errorf("empty endpoint list")
		}
		out := parts[0]
		for _, p := range parts[1:] {
			out += ", " + p
		}
		return out, nil
	}
	return "", fmt.Errorf("unsupported endpoint shape")
}

// entries iterates a mapping node's key/value pairs in document order.
func entries(n *yaml.Node) func(yield func(string, *yaml.Node) bool) {
	return func(yield func(string, *yaml.Node) bool) {
		if n == nil || n.Kind != yaml.MappingNode {
			return
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := resolve(n.Content[i])
			if key == nil || key.Kind != yaml.ScalarNode {
				continue
			}
			if !yield(key.Value, n.Content[i+1]) {
				return
			}
		}
	}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func scalar(n *yaml.Node) (string, bool) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return "", false
	}
	return n.Value, true
}

func boolScalar(n *yaml.Node) bool {
	s, _ := scalar(n)
	return s == "true"
}

// stringList accepts a bare scalar or a sequence of scalars.
func stringList(n *yaml.Node) ([]string, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		var out []string
		for _, item := range n.Content {
			s, ok := scalar(item)
			if !ok {
				return nil, fmt.Errorf("expected scalar list item")
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected scalar or sequence")
}

// ident normalizes identifiers read from the document so lookups are
// stable regardless of the document's unicode normalization form.
func ident(s string) string {
	return norm.NFC.String(s)
}
