package trace

import "context"

// Nop drops every event. It stands in whenever no tracer is attached.
var Nop Tracer = discard{}

type discard struct{}

func (discard) Emit(*Event) {}
func (discard) Flush() error { return nil }
func (discard) Close() error { return nil }
func (discard) Level() Level { return LevelOff }
func (discard) Enabled() bool { return false }

type ctxKey struct{}

// scope is what a context carries: the tracer and the span that encloses
// work started from it.
type scope struct {
	tracer Tracer
	parent uint64
}

func scopeOf(ctx context.Context) scope {
	if ctx != nil {
		if s, ok := ctx.Value(ctxKey{}).(scope); ok {
			return s
		}
	}
	return scope{tracer: Nop}
}

// WithTracer attaches t to ctx with no enclosing span.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, scope{tracer: t})
}

// FromContext returns the attached tracer, or Nop.
func FromContext(ctx context.Context) Tracer {
	return scopeOf(ctx).tracer
}

// Start opens a span under the span carried by ctx and returns a context in
// which the new span is the parent of further work.
func Start(ctx context.Context, sc Scope, name string) (context.Context, *Span) {
	s := scopeOf(ctx)
	span := Begin(s.tracer, sc, name, s.parent)
	if span.ID() == 0 {
		return ctx, span
	}
	return context.WithValue(ctx, ctxKey{}, scope{tracer: s.tracer, parent: span.ID()}), span
}

// Mark records a point event under the span carried by ctx.
func Mark(ctx context.Context, sc Scope, name, detail string) {
	s := scopeOf(ctx)
	Point(s.tracer, sc, name, detail, s.parent)
}
