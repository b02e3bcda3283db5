package diag

import "testing"

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(8)
	b := ReportWarning(BagReporter{Bag: bag}, NormDanglingConcat, At("App.il", 12), "unterminated concatenation at end of stream").
		WithNote(At("App.il", 20), "stream ended here")
	b.Emit()
	b.Emit()

	if bag.Len() != 1 {
		t.Fatalf("len = %d, want 1", bag.Len())
	}
	d := bag.Items()[0]
	if d.Severity != SevWarning || d.Code != NormDanglingConcat || d.Primary.File != "App.il" {
		t.Errorf("unexpected diagnostic %+v", d)
	}
	if len(d.Notes) != 1 || d.Notes[0].Msg != "stream ended here" {
		t.Errorf("notes = %+v", d.Notes)
	}
}

func TestReportWithoutReporter(t *testing.T) {
	ReportError(nil, IOLoadFileError, Span{File: "x.il"}, "failed to open file").Emit()
	ReportError(NopReporter{}, IOLoadFileError, Span{File: "x.il"}, "failed to open file").Emit()
	ReportError(BagReporter{}, IOLoadFileError, Span{File: "x.il"}, "failed to open file").Emit()
}

func TestBagReporterRespectsLimit(t *testing.T) {
	bag := NewBag(2)
	r := BagReporter{Bag: bag}
	for range 3 {
		ReportError(r, PatchBadOperand, Span{File: "a.il"}, "unterminated string operand left unchanged").Emit()
	}
	if bag.Len() != 2 || !bag.HasErrors() {
		t.Fatalf("len = %d, errors = %v", bag.Len(), bag.HasErrors())
	}
}
