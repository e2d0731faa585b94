package observability

import (
	"sort"
	"sync"
	"sync/atomic"
)

type Counter struct {
	v atomic.Int64
}

func (c *Counter) Inc()         { c.v.Add(1) }
func (c *Counter) Value() int64 { return c.v.Load() }

type CounterVec struct {
	mu sync.Mutex
	m  map[string]*Counter
}

func NewCounterVec() *CounterVec {
	return &CounterVec{m: map[string]*Counter{}}
}

func (cv *CounterVec) With(label string) *Counter {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	c, ok := cv.m[label]
	if !ok {
		c = &Counter{}
		cv.m[label] = c
	}
	return c
}

func (cv *CounterVec) Values() map[string]int64 {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	out := make(map[string]int64, len(cv.m))
	for k, c := range cv.m {
		out[k] = c.Value()
	}
	return out
}

// Metrics is the engine's injected metrics sink. It is constructed once at
// process start and passed by handle; nothing in the engine mutates
// package-level counters.
type Metrics struct {
	assembleTotal  *Counter
	layerFallback  *CounterVec
	compliance     *CounterVec
	llmOutcome     *CounterVec
	persistFailure *Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		assembleTotal:  &Counter{},
		layerFallback:  NewCounterVec(),
		compliance:     NewCounterVec(),
		llmOutcome:     NewCounterVec(),
		persistFailure: &Counter{},
	}
}

func (m *Metrics) ObserveAssembly() {
	if m == nil {
		return
	}
	m.assembleTotal.Inc()
}

func (m *Metrics) ObserveLayerFallback(layer string) {
	if m == nil {
		return
	}
	m.layerFallback.With(layer).Inc()
}

func (m *Metrics) ObserveCompliance(level string) {
	if m == nil {
		return
	}
	m.compliance.With(level).Inc()
}

func (m *Metrics) ObserveLLM(outcome string) {
	if m == nil {
		return
	}
	m.llmOutcome.With(outcome).Inc()
}

func (m *Metrics) ObservePersistFailure() {
	if m == nil {
		return
	}
	m.persistFailure.Inc()
}

// Snapshot flattens every counter into a stable-keyed map for the health
// endpoint and tests.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return map[string]int64{}
	}
	out := map[string]int64{
		"assemble_total":  m.assembleTotal.Value(),
		"persist_failure": m.persistFailure.Value(),
	}
	for _, group := range []struct {
		prefix string
		vec    *CounterVec
	}{
		{"layer_fallback_", m.layerFallback},
		{"compliance_", m.compliance},
		{"llm_", m.llmOutcome},
	} {
		vals := group.vec.Values()
		keys := make([]string, 0, len(vals))
		for k := range vals {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out[group.prefix+k] = vals[k]
		}
	}
	return out
}
