// Package ir provides the dialect-agnostic intermediate representation
// for a loaded nango.yaml schema.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. Both schema dialects are
// normalized into these types immediately after parsing, so downstream
// code never branches on the dialect version.
package ir
