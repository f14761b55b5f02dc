package ir

// TypeRef is the structured representation of a field's declared type.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the declaration renderer.
//
// Variants:
//   - Primitive: a member of the closed primitive set ("string", "number", ...)
//   - Literal: a quoted string, numeric or boolean literal union member
//   - ModelRef: a reference to another declared model
//   - ArrayOf: element type plus trailing []
//   - RecordOf: Record<K, V> with primitive key and value
//   - Nullable: T | null
//   - Optional: T | undefined, or a leading ? marker
//   - Union: ordered union of members, source order preserved
type TypeRef interface {
	typeRef() // Marker method - seals interface to this package
}

// Primitive is a member of the closed primitive type set, already mapped
// to its target name (integer -> number, date -> Date, ...).
type Primitive struct {
	Name string
}

// Literal is a literal union member rendered verbatim ('male', 42, true).
type Literal struct {
	Text string
}

// ModelRef references another model declared in the same schema.
type ModelRef struct {
	Name string
}

// ArrayOf wraps the element type of a trailing-[] expression.
type ArrayOf struct {
	Elem TypeRef
}

// RecordOf is a Record<K, V> expression. Key and Value are primitives.
type RecordOf struct {
	Key   TypeRef
	Value TypeRef
}

// Nullable marks a type that admits null.
type Nullable struct {
	Elem TypeRef
}

// Optional marks a type that admits undefined (or used a leading ?).
type Optional struct {
	Elem TypeRef
}

// Union is an ordered union of members. Order is preserved from source.
type Union struct {
	Members []TypeRef
}

func (*Primitive) typeRef() {}
func (*Literal) typeRef()   {}
func (*ModelRef) typeRef()  {}
func (*ArrayOf) typeRef()   {}
func (*RecordOf) typeRef()  {}
func (*Nullable) typeRef()  {}
func (*Optional) typeRef()  {}
func (*Union) typeRef()     {}
