// Package schema loads and validates nango.yaml documents.
//
// Two dialects are accepted and auto-detected per integration: the legacy
// flat form (operations keyed directly under the integration, implicit
// sync type) and the structured form (operations grouped under syncs: and
// actions: keys). Both normalize into the ir types immediately; nothing
// downstream sees the dialect.
//
// Structural violations surface as a single coarse-grained message so the
// schema document never leaks field-level detail at this stage; the
// fine-grained reporting happens when field expressions are compiled.
package schema
