package compile

import (
	"os"
	"path/filepath"

	"github.com/visioncreator-works/nango/internal/ir"
)

// SourceExt is the extension of integration source files.
const SourceExt = ".ts"

// Discovered is one source file matched to its operation, with the root
// directory its relative imports must stay inside.
type Discovered struct {
	Integration string
	Operation   string
	Kind        ir.OperationKind
	Path        string
	Root        string
}

// Discover locates the source file for every operation in the schema.
// Layout detection is per-integration: an integration with its own
// directory uses the nested <name>/{syncs,actions}/ layout and that
// directory becomes its containment root; otherwise files sit flat next
// to the schema document and the schema root contains them.
func Discover(root string, cfg *ir.NangoConfig) []Discovered {
	var out []Discovered
	for _, integration := range cfg.Integrations {
		nestedDir := filepath.Join(root, integration.Name)
		nested := isDir(nestedDir)
		for _, op := range integration.Operations {
			var path, contain string
			if nested {
				path = filepath.Join(nestedDir, kindDir(op.Kind), op.Name+SourceExt)
				contain = nestedDir
			} else {
				path = filepath.Join(root, op.Name+SourceExt)
				contain = root
			}
			if !isFile(path) {
				continue
			}
			out = append(out, Discovered{
				Integration: integration.Name,
				Operation:   op.Name,
				Kind:        op.Kind,
				Path:        path,
				Root:        contain,
			})
		}
	}
	return out
}

func kindDir(kind ir.OperationKind) string {
	if kind == ir.KindAction {
		return "actions"
	}
	return "syncs"
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
