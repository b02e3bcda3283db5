package diag

// Reporter receives finished diagnostics from the normalizer, the rule
// compiler and the patcher. Implementations must accept concurrent calls:
// patch workers share one reporter.
type Reporter interface {
	Report(d Diagnostic)
}

// ReportBuilder assembles one diagnostic; Emit hands it to the reporter.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

// NewReportBuilder starts a diagnostic for r. A nil r is allowed, Emit is
// then a no-op.
func NewReportBuilder(r Reporter, sev Severity, code Code, primary Span, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		diag: Diagnostic{
			Severity: sev,
			Code:     code,
			Message:  msg,
			Primary:  primary,
		},
	}
}

func ReportError(r Reporter, code Code, primary Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevError, code, primary, msg)
}

func ReportWarning(r Reporter, code Code, primary Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, primary, msg)
}

// WithNote adds a secondary location, e.g. where the stream ended for a
// construct that started earlier.
func (b *ReportBuilder) WithNote(sp Span, msg string) *ReportBuilder {
	b.diag.Notes = append(b.diag.Notes, Note{Span: sp, Msg: msg})
	return b
}

// Emit reports the diagnostic once; later calls do nothing.
func (b *ReportBuilder) Emit() {
	if b.emitted {
		return
	}
	b.emitted = true
	if b.reporter != nil {
		b.reporter.Report(b.diag)
	}
}

// BagReporter collects into Bag. Diagnostics past the bag limit are dropped.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag != nil {
		r.Bag.Add(d)
	}
}

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}
