package diag

type Note struct {
	Span Span   `json:"span"`
	Msg  string `json:"msg"`
}

type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Message  string   `json:"message"`
	Primary  Span     `json:"primary"`
	Notes    []Note   `json:"notes,omitempty"`
}
