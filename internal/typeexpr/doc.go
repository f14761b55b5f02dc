// Package typeexpr compiles model field type expressions into the ir
// TypeRef tree and renders the generated TypeScript declarations.
//
// The expression mini-language is parsed by a small recursive-descent
// parser over the raw string: top-level | builds unions, a trailing []
// builds arrays, Record<K, V> builds records, null/undefined/leading ?
// fold into Nullable/Optional wrappers. Union member order is preserved
// from source so rendering is deterministic.
package typeexpr
