// Package usage statically verifies that an integration source file calls
// the platform's data-submission primitives according to the usage
// contract: asynchronous calls must be awaited (or guarded by try/catch),
// sync handlers must not return values from their top level, retryOn must
// co-occur with retries, and only declared models may be referenced.
//
// The analysis parses the TypeScript subset used by integration scripts
// into a small syntax tree and walks it with a scope stack, so the
// nested-function rules hold for arbitrarily deep helper functions. The
// walk is pure and performs no I/O beyond reading the source file.
package usage
