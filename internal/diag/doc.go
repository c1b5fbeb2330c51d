// Package diag defines the diagnostic model shared by all build stages.
//
// Stages never print. They emit Diagnostics through a Reporter; the CLI
// collects them in a Bag and renders them with internal/diagfmt.
//
// Severity follows the build's error policy:
//
//   - SevWarning is non-fatal. Inlining read failures and slow minification
//     are reported this way and the build continues.
//   - SevError accompanies an error return that aborts the current chunk
//     (minifier failure, bundler errors, unwritable artifact).
//
// Codes are grouped by stage: ALS (alias table), RWR (rewrite stages),
// MIN (minification), HST (host bundler), PRJ (manifest), CCH (cache).
//
// Reporters must be safe for concurrent use because the host bundler loads
// modules in parallel. Bag and DedupReporter guard their state with a mutex.
package diag
