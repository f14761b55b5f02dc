package compile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/visioncreator-works/nango/internal/usage"
)

// PathContainmentError reports a relative import that escapes the
// integration's root directory. The file is rejected before the language
// compiler ever sees it; the batch continues with its siblings.
type PathContainmentError struct {
	File   string
	Import string
}

func (e *PathContainmentError) Error() string {
	return fmt.Sprintf("import %q in %s escapes the integration directory", e.Import, e.File)
}

// CheckImports resolves every relative import of the parsed file against
// the file's directory and rejects any path that ends up outside root.
// Bare specifiers resolve through the package manager, not the
// filesystem, so they are not subject to containment.
func CheckImports(file *usage.File, path, root string) error {
	dir := filepath.Dir(path)
	for _, imp := range file.Imports {
		if !strings.HasPrefix(imp.Path, ".") {
			continue
		}
		resolved := filepath.Clean(filepath.Join(dir, imp.Path))
		rel, err := filepath.Rel(root, resolved)
		if err != nil || escapes(rel) {
			return &PathContainmentError{File: path, Import: imp.Path}
		}
	}
	return nil
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
