package trace

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// openSpans counts spans begun and not yet ended on an enabled tracer.
var openSpans atomic.Int64

// OpenSpans returns the number of spans currently open.
func OpenSpans() int64 { return openSpans.Load() }

// Heartbeat emits a liveness event every interval. Each beat carries the
// number of open spans: beats that keep arriving while that number stays
// put point at a file that is stuck (e.g. a pathological regex).
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	done     chan struct{}
	stopped  chan struct{}
	once     sync.Once
}

// StartHeartbeat starts the beat goroutine. It returns nil when tracing is
// off or interval is not positive; Stop on nil is a no-op.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   tracer,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer close(h.stopped)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for beat := 1; ; beat++ {
		select {
		case <-h.done:
			return
		case now := <-ticker.C:
			h.tracer.Emit(&Event{
				Time:   now,
				Seq:    NextSeq(),
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				Name:   "heartbeat",
				Detail: "#" + strconv.Itoa(beat),
				Extra:  map[string]string{"open_spans": strconv.FormatInt(OpenSpans(), 10)},
			})
		}
	}
}

// Stop ends the beat goroutine and waits for it. Safe to call twice.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.done) })
	<-h.stopped
}
