package typeexpr

import (
	"fmt"
	"strings"

	"github.com/visioncreator-works/nango/internal/ir"
)

// Header is written at the top of the generated declaration artifact.
const Header = "// Generated by nango. Do not edit this file manually.\n"

// Render produces the declaration text for one TypeRef.
func Render(t ir.TypeRef) string {
	switch v := t.(type) {
	case *ir.Primitive:
		return v.Name
	case *ir.Literal:
		return v.Text
	case *ir.ModelRef:
		return v.Name
	case *ir.ArrayOf:
		inner := Render(v.Elem)
		if needsParens(v.Elem) {
			return "(" + inner + ")[]"
		}
		return inner + "[]"
	case *ir.RecordOf:
		return "Record<" + Render(v.Key) + ", " + Render(v.Value) + ">"
	case *ir.Nullable:
		return Render(v.Elem) + " | null"
	case *ir.Optional:
		return Render(v.Elem) + " | undefined"
	case *ir.Union:
		members := make([]string, len(v.Members))
		for i, m := range v.Members {
			members[i] = Render(m)
		}
		return strings.Join(members, " | ")
	default:
		panic(fmt.Sprintf("unhandled TypeRef %T", t))
	}
}

// needsParens reports whether an array element type must be wrapped so
// the trailing [] binds to the whole type, not the last union member.
func needsParens(t ir.TypeRef) bool {
	switch t.(type) {
	case *ir.Union, *ir.Nullable, *ir.Optional:
		return true
	}
	return false
}

// RenderModels renders one interface declaration per model, in document
// order, as a single deterministic artifact. Re-running against an
// unchanged schema yields byte-identical output.
func (c *Compiler) RenderModels(models []ir.Model) (string, error) {
	var b strings.Builder
	b.WriteString(Header)
	for _, model := range models {
		b.WriteString("\nexport interface ")
		b.WriteString(model.Name)
		b.WriteString(" {\n")
		for _, field := range model.Fields {
			t, err := c.CompileField(model.Name, field.Raw)
			if err != nil {
				return "", err
			}
			name := field.Name
			// A top-level Optional renders as an optional property
			// rather than a | undefined union member.
			if opt, ok := t.(*ir.Optional); ok {
				name += "?"
				t = opt.Elem
			}
			fmt.Fprintf(&b, "  %s: %s;\n", name, Render(t))
		}
		b.WriteString("}\n")
	}
	return b.String(), nil
}

// RenderModels is the package-level convenience over a fresh compiler.
func RenderModels(models []ir.Model) (string, error) {
	known := make(map[string]bool, len(models))
	for _, m := range models {
		known[m.Name] = true
	}
	return NewCompiler(known).RenderModels(models)
}
