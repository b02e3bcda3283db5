// Package trace is the logging layer of ilpatch.
//
// Commands open a driver span, each pass (normalize, rewrite, patch) opens a
// pass span, and per-file work opens file spans. Individual substitutions are
// recorded as point events at item scope.
//
// # Usage
//
//	ilpatch patch --trace=- --trace-level=detail App.il
//
// # Tracers
//
//   - Nop: zero-overhead tracer used when tracing is disabled
//   - StreamTracer: writes every event immediately (text or NDJSON)
//   - RingTracer: keeps the last N events, dumped when a command fails
//   - MultiTracer: fans out to several tracers
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopePass, "normalize")
//	defer span.End("")
//	trace.Mark(ctx, trace.ScopeItem, "substitution", detail)
package trace
