package readonly

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eringen/vendsite/logging"
)

// Usage is how often one disabled operation has been called.
type Usage struct {
	ContentType string `json:"content_type"`
	Op          Op     `json:"operation"`
	Count       int    `json:"count"`
}

type usageKey struct {
	contentType string
	op          Op
}

// Tracker is a Reporter that warns once per content type and operation and
// counts every call. The composing application owns it; Reset clears it.
type Tracker struct {
	mu      sync.Mutex
	counts  map[usageKey]int
	logger  logging.Logger
	counter *prometheus.CounterVec
}

// NewTracker returns an empty Tracker. counter may be nil.
func NewTracker(logger logging.Logger, counter *prometheus.CounterVec) *Tracker {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Tracker{
		counts:  make(map[usageKey]int),
		logger:  logger,
		counter: counter,
	}
}

// Report records one call to a disabled operation.
func (t *Tracker) Report(contentType string, op Op) {
	k := usageKey{contentType: contentType, op: op}
	t.mu.Lock()
	n := t.counts[k]
	t.counts[k] = n + 1
	t.mu.Unlock()

	if t.counter != nil {
		t.counter.WithLabelValues(contentType, string(op)).Inc()
	}
	fields := []logging.Field{
		logging.String("content_type", contentType),
		logging.String("operation", string(op)),
	}
	if n == 0 {
		t.logger.Warn("deprecated operation invoked; content is managed in the CMS", fields...)
		return
	}
	t.logger.Debug("deprecated operation invoked", fields...)
}

// Reported reports whether contentType.op has been seen since the last Reset.
func (t *Tracker) Reported(contentType string, op Op) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[usageKey{contentType: contentType, op: op}] > 0
}

// Snapshot returns the counts sorted by content type, then operation.
func (t *Tracker) Snapshot() []Usage {
	t.mu.Lock()
	out := make([]Usage, 0, len(t.counts))
	for k, n := range t.counts {
		out = append(out, Usage{ContentType: k.contentType, Op: k.op, Count: n})
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ContentType != out[j].ContentType {
			return out[i].ContentType < out[j].ContentType
		}
		return out[i].Op < out[j].Op
	})
	return out
}

// Reset forgets every reported operation.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.counts = make(map[usageKey]int)
	t.mu.Unlock()
}
