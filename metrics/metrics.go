// Package metrics wraps the prometheus client so every component
// registers its counters/gauges/histograms through one Registerer,
// without importing prometheus directly outside this package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registerer registers collectors against the node's registry.
type Registerer interface {
	prometheus.Registerer
}

// Registry is a full registerer+gatherer, satisfied by
// prometheus.Registry.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// NewRegistry returns a fresh prometheus registry.
func NewRegistry() Registry {
	return prometheus.NewRegistry()
}

// MultiGatherer combines metrics from several named sources (e.g. one per
// world hosted by a node) behind a single Gatherer.
type MultiGatherer interface {
	prometheus.Gatherer
	Register(name string, gatherer prometheus.Gatherer) error
}

type multiGatherer struct {
	gatherers map[string]prometheus.Gatherer
}

// NewMultiGatherer returns an empty MultiGatherer.
func NewMultiGatherer() MultiGatherer {
	return &multiGatherer{gatherers: make(map[string]prometheus.Gatherer)}
}

func (mg *multiGatherer) Register(name string, gatherer prometheus.Gatherer) error {
	mg.gatherers[name] = gatherer
	return nil
}

func (mg *multiGatherer) Gather() ([]*dto.MetricFamily, error) {
	var result []*dto.MetricFamily
	for _, g := range mg.gatherers {
		families, err := g.Gather()
		if err != nil {
			return nil, err
		}
		result = append(result, families...)
	}
	return result, nil
}

// WorldMetrics is the per-world counter/gauge set every node exposes.
type WorldMetrics interface {
	ActionsSubmitted() prometheus.Counter
	ActionsApplied() prometheus.Counter
	ActionsRejected() prometheus.Counter
	EffectsDispatched() prometheus.Counter
	EffectsDenied() prometheus.Counter
	ModuleInvocations() prometheus.Counter
	ModuleDenials() prometheus.Counter
	ModuleTraps() prometheus.Counter
	SnapshotsTaken() prometheus.Counter
	Rollbacks() prometheus.Counter
	MempoolSize() prometheus.Gauge
	JournalLength() prometheus.Gauge
	TickDuration() prometheus.Histogram
}

// NewWorldMetrics builds and registers the standard world counter set under
// namespace, returning an error if any collector name collides.
func NewWorldMetrics(namespace string, registerer prometheus.Registerer) (WorldMetrics, error) {
	m := &worldMetrics{
		actionsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "actions_submitted_total", Help: "Actions submitted to the mempool.",
		}),
		actionsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "actions_applied_total", Help: "Actions that produced a domain event.",
		}),
		actionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "actions_rejected_total", Help: "Actions rejected by rules or validation.",
		}),
		effectsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "effects_dispatched_total", Help: "Effect intents dispatched to handlers.",
		}),
		effectsDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "effects_denied_total", Help: "Effect intents denied by policy.",
		}),
		moduleInvocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "module_invocations_total", Help: "WASM/builtin module rule invocations.",
		}),
		moduleDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "module_denials_total", Help: "Module rule invocations that returned Deny.",
		}),
		moduleTraps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "module_traps_total", Help: "Module invocations that trapped or exceeded limits.",
		}),
		snapshotsTaken: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "snapshots_taken_total", Help: "Snapshots written.",
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rollbacks_total", Help: "Journal rollbacks applied.",
		}),
		mempoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "mempool_size", Help: "Current mempool size.",
		}),
		journalLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "journal_length", Help: "Events in the journal since the last snapshot.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "tick_duration_seconds", Help: "Wall time spent executing one tick.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	collectors := []prometheus.Collector{
		m.actionsSubmitted, m.actionsApplied, m.actionsRejected,
		m.effectsDispatched, m.effectsDenied,
		m.moduleInvocations, m.moduleDenials, m.moduleTraps,
		m.snapshotsTaken, m.rollbacks,
		m.mempoolSize, m.journalLength, m.tickDuration,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type worldMetrics struct {
	actionsSubmitted  prometheus.Counter
	actionsApplied    prometheus.Counter
	actionsRejected   prometheus.Counter
	effectsDispatched prometheus.Counter
	effectsDenied     prometheus.Counter
	moduleInvocations prometheus.Counter
	moduleDenials     prometheus.Counter
	moduleTraps       prometheus.Counter
	snapshotsTaken    prometheus.Counter
	rollbacks         prometheus.Counter
	mempoolSize       prometheus.Gauge
	journalLength     prometheus.Gauge
	tickDuration      prometheus.Histogram
}

func (m *worldMetrics) ActionsSubmitted() prometheus.Counter  { return m.actionsSubmitted }
func (m *worldMetrics) ActionsApplied() prometheus.Counter    { return m.actionsApplied }
func (m *worldMetrics) ActionsRejected() prometheus.Counter   { return m.actionsRejected }
func (m *worldMetrics) EffectsDispatched() prometheus.Counter { return m.effectsDispatched }
func (m *worldMetrics) EffectsDenied() prometheus.Counter     { return m.effectsDenied }
func (m *worldMetrics) ModuleInvocations() prometheus.Counter { return m.moduleInvocations }
func (m *worldMetrics) ModuleDenials() prometheus.Counter     { return m.moduleDenials }
func (m *worldMetrics) ModuleTraps() prometheus.Counter       { return m.moduleTraps }
func (m *worldMetrics) SnapshotsTaken() prometheus.Counter    { return m.snapshotsTaken }
func (m *worldMetrics) Rollbacks() prometheus.Counter         { return m.rollbacks }
func (m *worldMetrics) MempoolSize() prometheus.Gauge         { return m.mempoolSize }
func (m *worldMetrics) JournalLength() prometheus.Gauge       { return m.journalLength }
func (m *worldMetrics) TickDuration() prometheus.Histogram    { return m.tickDuration }
