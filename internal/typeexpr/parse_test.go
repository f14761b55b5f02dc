package typeexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visioncreator-works/nango/internal/ir"
)

func testCompiler() *Compiler {
	return NewCompiler(map[string]bool{"Author": true, "Other": true})
}

func TestCompileFieldRendering(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"string", "string"},
		{"integer", "number"},
		{"int", "number"},
		{"bool", "boolean"},
		{"date", "Date"},
		{"varchar", "string"},
		{"'male' | 'female'", "'male' | 'female'"},
		{`"male" | "female"`, "'male' | 'female'"},
		{"'male' | null", "'male' | null"},
		{"Author", "Author"},
		{"Other[]", "Other[]"},
		{"string[]", "string[]"},
		{"string | number[]", "string | number[]"},
		{"(string | number)[]", "(string | number)[]"},
		{"Record<string, number>", "Record<string, number>"},
		{"Record<string, boolean>[]", "Record<string, boolean>[]"},
		{"?string", "string | undefined"},
		{"string | undefined", "string | undefined"},
		{"number | null", "number | null"},
		{"number | null | undefined", "number | null | undefined"},
		{"Author[] | null", "Author[] | null"},
		{"1 | 2 | 3", "1 | 2 | 3"},
		{"true | false", "true | false"},
		{"null", "null"},
	}

	c := testCompiler()
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ref, err := c.CompileField("Test", tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Render(ref))
		})
	}
}

func TestCompileFieldNestedWrappers(t *testing.T) {
	c := testCompiler()

	// Nullable array of model references.
	ref, err := c.CompileField("Test", "Author[] | null")
	require.NoError(t, err)
	nullable, ok := ref.(*ir.Nullable)
	require.True(t, ok)
	array, ok := nullable.Elem.(*ir.ArrayOf)
	require.True(t, ok)
	_, ok = array.Elem.(*ir.ModelRef)
	assert.True(t, ok)

	// Optional record of primitives.
	ref, err = c.CompileField("Test", "?Record<string, number>")
	require.NoError(t, err)
	optional, ok := ref.(*ir.Optional)
	require.True(t, ok)
	_, ok = optional.Elem.(*ir.RecordOf)
	assert.True(t, ok)
}

func TestCompileFieldUnionOrderPreserved(t *testing.T) {
	c := testCompiler()
	ref, err := c.CompileField("Test", "'closed' | 'open' | 'draft'")
	require.NoError(t, err)

	union, ok := ref.(*ir.Union)
	require.True(t, ok)
	require.Len(t, union.Members, 3)
	assert.Equal(t, "'closed'", union.Members[0].(*ir.Literal).Text)
	assert.Equal(t, "'open'", union.Members[1].(*ir.Literal).Text)
	assert.Equal(t, "'draft'", union.Members[2].(*ir.Literal).Text)
}

func TestCompileFieldQuotedArrayStaysLiteral(t *testing.T) {
	// 'Other[]' is a string literal, never an array of models.
	c := testCompiler()
	ref, err := c.CompileField("Test", "'Other[]'")
	require.NoError(t, err)

	lit, ok := ref.(*ir.Literal)
	require.True(t, ok)
	assert.Equal(t, "'Other[]'", lit.Text)
}

func TestCompileFieldTrailingPunctuation(t *testing.T) {
	c := testCompiler()
	for _, raw := range []string{"string,", "string;", "'male' | 'female',"} {
		t.Run(raw, func(t *testing.T) {
			_, err := c.CompileField("Person", raw)
			require.Error(t, err)

			var ferr *FieldError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, "Person", ferr.Model)
			assert.Contains(t, ferr.Error(), raw)
			assert.Contains(t, ferr.Error(), "ends with a comma or semicolon which is not allowed")
		})
	}

	// Stripping the trailing punctuation makes compilation succeed.
	_, err := c.CompileField("Person", "string")
	assert.NoError(t, err)
}

func TestCompileFieldUnknownType(t *testing.T) {
	c := testCompiler()
	_, err := c.CompileField("Person", "Widget")
	require.Error(t, err)

	var ferr *FieldError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "Person", ferr.Model)
	assert.Contains(t, ferr.Error(), "Widget")
}

func TestCompileLoosePassthrough(t *testing.T) {
	// Action inputs/outputs accept any identifier as written.
	c := testCompiler()
	ref, err := c.CompileLoose("SomethingExternal")
	require.NoError(t, err)
	assert.Equal(t, "SomethingExternal", Render(ref))

	// The strict and loose caches do not bleed into each other.
	_, err = c.CompileField("Person", "SomethingExternal")
	assert.Error(t, err)
}

func TestCompileFieldCached(t *testing.T) {
	c := testCompiler()
	first, err := c.CompileField("A", "string | null")
	require.NoError(t, err)
	second, err := c.CompileField("B", "string | null")
	require.NoError(t, err)
	assert.Same(t, first, second)
}
