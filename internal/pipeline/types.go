package pipeline

import "time"

// Stage describes a phase of processing one file.
type Stage string

const (
	// StageRead covers reading and decoding the input.
	StageRead Stage = "read"
	// StageNormalize covers literal merging.
	StageNormalize Stage = "normalize"
	// StageRewrite covers pattern substitution.
	StageRewrite Stage = "rewrite"
	// StageWrite covers committing outputs.
	StageWrite Stage = "write"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the task is done.
	StatusDone Status = "done"
	// StatusSkipped indicates the task was satisfied from cache or had nothing to do.
	StatusSkipped Status = "skipped"
	// StatusError indicates the task encountered an error.
	StatusError Status = "error"
)

// Event reports progress for a file (or for the overall run when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Count   int // substitutions so far, when meaningful
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// Emit sends evt to sink if one is set.
func Emit(sink ProgressSink, evt Event) {
	if sink == nil {
		return
	}
	sink.OnEvent(evt)
}
