package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram bounds in microseconds: 1µs to 1 hour, 3 significant figures.
const (
	histogramMin     int64 = 1
	histogramMax     int64 = 3600000000
	histogramSigFigs       = 3
)

// Collector aggregates request outcomes per (method, name) pair.
//
// # Thread Safety
//
// Collector is safe for concurrent use. The entry map is guarded by an
// RWMutex; each entry carries its own mutex because HDR histograms are not
// safe for concurrent writes.
type Collector struct {
	mu      sync.RWMutex
	entries map[entryKey]*entry
}

type entryKey struct {
	method string
	name   string
}

type entry struct {
	mu       sync.Mutex
	hist     *hdrhistogram.Histogram
	requests int64
	failures int64
	bytes    int64
	errors   map[string]int64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		entries: make(map[entryKey]*entry),
	}
}

// RecordSuccess implements Recorder.
func (c *Collector) RecordSuccess(method, name string, elapsed time.Duration, bytes int64) {
	e := c.entry(method, name)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.requests++
	e.bytes += bytes
	e.recordLatency(elapsed)
}

// RecordFailure implements Recorder.
func (c *Collector) RecordFailure(method, name string, elapsed time.Duration, err error) {
	e := c.entry(method, name)

	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.requests++
	e.failures++
	e.errors[reason]++
	e.recordLatency(elapsed)
}

// entry returns the entry for a key, creating it on first use.
func (c *Collector) entry(method, name string) *entry {
	key := entryKey{method: method, name: name}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok = c.entries[key]; ok {
		return e
	}
	e = &entry{
		hist:   hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		errors: make(map[string]int64),
	}
	c.entries[key] = e
	return e
}

// recordLatency clamps to the histogram range. Caller holds e.mu.
func (e *entry) recordLatency(elapsed time.Duration) {
	micros := elapsed.Microseconds()
	if micros < histogramMin {
		micros = histogramMin
	}
	if micros > histogramMax {
		micros = histogramMax
	}
	_ = e.hist.RecordValue(micros)
}

// Snapshot returns a point-in-time copy of every entry, sorted by name and
// then method, together with an aggregated total across all entries.
func (c *Collector) Snapshot() *Snapshot {
	type keyed struct {
		key   entryKey
		entry *entry
	}

	c.mu.RLock()
	pairs := make([]keyed, 0, len(c.entries))
	for k, e := range c.entries {
		pairs = append(pairs, keyed{key: k, entry: e})
	}
	c.mu.RUnlock()

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key.name != pairs[j].key.name {
			return pairs[i].key.name < pairs[j].key.name
		}
		return pairs[i].key.method < pairs[j].key.method
	})

	snap := &Snapshot{
		Entries: make([]EntryStats, 0, len(pairs)),
		Total: EntryStats{
			Method: "",
			Name:   "Aggregated",
			Errors: make(map[string]int64),
		},
	}
	total := hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs)

	for _, p := range pairs {
		k, e := p.key, p.entry

		e.mu.Lock()
		es := EntryStats{
			Method:   k.method,
			Name:     k.name,
			Requests: e.requests,
			Failures: e.failures,
			Bytes:    e.bytes,
			Latency:  latencyFrom(e.hist),
			Errors:   make(map[string]int64, len(e.errors)),
		}
		for reason, n := range e.errors {
			es.Errors[reason] = n
			snap.Total.Errors[reason] += n
		}
		total.Merge(e.hist)
		e.mu.Unlock()

		snap.Total.Requests += es.Requests
		snap.Total.Failures += es.Failures
		snap.Total.Bytes += es.Bytes
		snap.Entries = append(snap.Entries, es)
	}
	snap.Total.Latency = latencyFrom(total)

	return snap
}

// Reset drops every entry.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[entryKey]*entry)
}

func latencyFrom(h *hdrhistogram.Histogram) LatencyStats {
	if h.TotalCount() == 0 {
		return LatencyStats{}
	}
	return LatencyStats{
		Min:  time.Duration(h.Min()) * time.Microsecond,
		Max:  time.Duration(h.Max()) * time.Microsecond,
		Mean: time.Duration(h.Mean()) * time.Microsecond,
		P50:  time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P90:  time.Duration(h.ValueAtQuantile(90)) * time.Microsecond,
		P95:  time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
		P99:  time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
	}
}

// Snapshot contains a point-in-time view of the collector.
type Snapshot struct {
	Entries []EntryStats `json:"entries"`
	Total   EntryStats   `json:"total"`
}

// Find returns the entry for a method and name.
func (s *Snapshot) Find(method, name string) (EntryStats, bool) {
	for _, e := range s.Entries {
		if e.Method == method && e.Name == name {
			return e, true
		}
	}
	return EntryStats{}, false
}

// EntryStats contains the statistics for one (method, name) pair.
type EntryStats struct {
	Method   string           `json:"method,omitempty"`
	Name     string           `json:"name"`
	Requests int64            `json:"requests"`
	Failures int64            `json:"failures"`
	Bytes    int64            `json:"bytes"`
	Latency  LatencyStats     `json:"latency"`
	Errors   map[string]int64 `json:"errors,omitempty"`
}

// Successes returns the number of requests that did not fail.
func (e EntryStats) Successes() int64 {
	return e.Requests - e.Failures
}

// FailureRate returns failures/requests, or 0 when nothing was recorded.
func (e EntryStats) FailureRate() float64 {
	if e.Requests == 0 {
		return 0
	}
	return float64(e.Failures) / float64(e.Requests)
}

// LatencyStats contains latency statistics.
type LatencyStats struct {
	Min  time.Duration `json:"min"`
	Max  time.Duration `json:"max"`
	Mean time.Duration `json:"mean"`
	P50  time.Duration `json:"p50"`
	P90  time.Duration `json:"p90"`
	P95  time.Duration `json:"p95"`
	P99  time.Duration `json:"p99"`
}
