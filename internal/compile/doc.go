// Package compile orchestrates a batch compile run: it discovers the
// integration source files under the legacy flat layout or the nested
// per-integration layout, renders the model declarations once, then runs
// usage analysis and the language toolchain per file.
//
// Files are independent; per-file work runs in parallel and the batch
// result is the logical AND of the per-file results. A failing file never
// aborts the batch, so every diagnostic surfaces in one run.
package compile
