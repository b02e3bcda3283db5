// Package patch applies a rewrite rule to a disassembled assembly: the
// merged ldstr operands and literal string fields of its .il files and the
// text resources dumped next to them.
//
// Outputs are staged while the inputs are scanned and committed only when
// at least one substitution happened across the whole run.
package patch
