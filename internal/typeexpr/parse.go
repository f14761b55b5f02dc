package typeexpr

import (
	"errors"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/visioncreator-works/nango/internal/ir"
)

// primitives is the closed set of accepted primitive names, mapped to
// their target declaration names.
var primitives = map[string]string{
	"string":    "string",
	"char":      "string",
	"varchar":   "string",
	"number":    "number",
	"integer":   "number",
	"int":       "number",
	"float":     "number",
	"bigint":    "number",
	"boolean":   "boolean",
	"bool":      "boolean",
	"date":      "Date",
	"any":       "any",
	"object":    "object",
	"void":      "void",
	"null":      "null",
	"undefined": "undefined",
}

// cacheSize bounds the per-run parse cache. Schemas rarely exceed a few
// hundred distinct field expressions.
const cacheSize = 512

// Compiler turns raw field expressions into TypeRef trees. Parsed
// expressions are cached for the duration of a compile run; the trees are
// immutable so sharing is safe.
type Compiler struct {
	models map[string]bool
	cache  *lru.Cache[string, ir.TypeRef]
}

// NewCompiler creates a compiler that resolves bare identifiers against
// the given set of declared model names.
func NewCompiler(models map[string]bool) *Compiler {
	cache, _ := lru.New[string, ir.TypeRef](cacheSize)
	return &Compiler{models: models, cache: cache}
}

// CompileField parses one model field's raw expression. Unknown
// identifiers outside the primitive set and the model set are an error.
func (c *Compiler) CompileField(model, raw string) (ir.TypeRef, error) {
	t, err := c.compile(raw, false)
	if err != nil {
		var perr *parseError
		if errors.As(err, &perr) {
			return nil, &FieldError{Model: model, Raw: raw, kind: perr.kind, token: perr.token}
		}
		return nil, err
	}
	return t, nil
}

// CompileLoose parses an expression in passthrough mode: any identifier
// is accepted as written. Used for action inputs/outputs, which need not
// declare a model.
func (c *Compiler) CompileLoose(raw string) (ir.TypeRef, error) {
	return c.compile(raw, true)
}

func (c *Compiler) compile(raw string, loose bool) (ir.TypeRef, error) {
	key := "s\x00" + raw
	if loose {
		key = "l\x00" + raw
	}
	if t, ok := c.cache.Get(key); ok {
		return t, nil
	}

	trimmed := strings.TrimSpace(raw)
	// Trailing punctuation means the user pasted a multi-field block into
	// a single field slot; reject before tokenizing.
	if strings.HasSuffix(trimmed, ",") || strings.HasSuffix(trimmed, ";") {
		return nil, &parseError{kind: errTrailingPunct}
	}

	t, err := c.parseExpr(trimmed, loose)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, t)
	return t, nil
}

func (c *Compiler) parseExpr(s string, loose bool) (ir.TypeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, &parseError{kind: errMalformed}
	}

	if rest, ok := strings.CutPrefix(s, "?"); ok {
		elem, err := c.parseExpr(rest, loose)
		if err != nil {
			return nil, err
		}
		return &ir.Optional{Elem: elem}, nil
	}

	parts := splitTop(s, '|')
	if len(parts) > 1 {
		return c.parseUnion(parts, loose)
	}
	return c.parseSingle(s, loose)
}

// parseUnion builds a union from the top-level | members, folding null
// and undefined members into Nullable/Optional wrappers. Member order is
// preserved from source.
func (c *Compiler) parseUnion(parts []string, loose bool) (ir.TypeRef, error) {
	var members []ir.TypeRef
	nullable, optional := false, false
	for _, part := range parts {
		switch strings.TrimSpace(part) {
		case "null":
			nullable = true
		case "undefined":
			optional = true
		default:
			member, err := c.parseExpr(part, loose)
			if err != nil {
				return nil, err
			}
			members = append(members, member)
		}
	}

	var t ir.TypeRef
	switch len(members) {
	case 0:
		t = &ir.Primitive{Name: "null"}
		nullable = false
	case 1:
		t = members[0]
	default:
		t = &ir.Union{Members: members}
	}
	if nullable {
		t = &ir.Nullable{Elem: t}
	}
	if optional {
		t = &ir.Optional{Elem: t}
	}
	return t, nil
}

func (c *Compiler) parseSingle(s string, loose bool) (ir.TypeRef, error) {
	s = strings.TrimSpace(s)

	if rest, ok := strings.CutSuffix(s, "[]"); ok {
		elem, err := c.parseExpr(rest, loose)
		if err != nil {
			return nil, err
		}
		return &ir.ArrayOf{Elem: elem}, nil
	}

	if inner, ok := recordInner(s); ok {
		return c.parseRecord(inner, loose)
	}

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return c.parseExpr(s[1:len(s)-1], loose)
	}

	if lit, ok := quotedLiteral(s); ok {
		return &ir.Literal{Text: lit}, nil
	}
	if s == "true" || s == "false" {
		return &ir.Literal{Text: s}, nil
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return &ir.Literal{Text: s}, nil
	}

	if c.models[s] {
		return &ir.ModelRef{Name: s}, nil
	}
	if name, ok := primitives[strings.ToLower(s)]; ok {
		return &ir.Primitive{Name: name}, nil
	}
	if loose {
		// Action passthrough: keep the identifier as written.
		return &ir.Primitive{Name: s}, nil
	}
	return nil, &parseError{kind: errUnknownType, token: s}
}

func (c *Compiler) parseRecord(inner string, loose bool) (ir.TypeRef, error) {
	kv := splitTop(inner, ',')
	if len(kv) != 2 {
		return nil, &parseError{kind: errMalformed}
	}
	key, err := c.parseSingle(kv[0], loose)
	if err != nil {
		return nil, err
	}
	value, err := c.parseSingle(kv[1], loose)
	if err != nil {
		return nil, err
	}
	// Record keys and values are primitives; a model-valued record would
	// need a real model reference instead.
	if _, ok := key.(*ir.Primitive); !ok {
		return nil, &parseError{kind: errMalformed}
	}
	if _, ok := value.(*ir.Primitive); !ok {
		return nil, &parseError{kind: errMalformed}
	}
	return &ir.RecordOf{Key: key, Value: value}, nil
}

// recordInner returns the K, V portion of a Record<K, V> expression.
func recordInner(s string) (string, bool) {
	rest, ok := strings.CutPrefix(s, "Record<")
	if !ok {
		return "", false
	}
	inner, ok := strings.CutSuffix(rest, ">")
	if !ok {
		return "", false
	}
	return inner, true
}

// quotedLiteral recognizes 'text' and "text" literals, normalized to
// single quotes for rendering.
func quotedLiteral(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	open, last := s[0], s[len(s)-1]
	if (open == '\'' && last == '\'') || (open == '"' && last == '"') {
		return "'" + s[1:len(s)-1] + "'", true
	}
	return "", false
}

// splitTop splits s on sep occurring at the top nesting level, respecting
// <>, (), [], {} and both quote styles.
func splitTop(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case '<', '(', '[', '{':
			depth++
		case '>', ')', ']', '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
