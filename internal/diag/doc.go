// Package diag defines the diagnostic model shared by the normalizer, the
// rewrite rules and the patcher.
//
// Producers emit through the Reporter interface (usually a BagReporter) and
// never format anything themselves; rendering lives in internal/diagfmt.
//
// Codes are grouped by subsystem: 1xxx normalizer, 2xxx rewrite, 3xxx patch,
// 40xx I/O, 41xx configuration. The ID form (e.g. NRM1001) is stable and is
// what JSON output carries.
package diag
