// Package metrics exposes Prometheus collectors for the registrar,
// delivering the integration internal/core/metrics/doc.go in the teacher
// repo marks as "⏸️ Prometheus 集成" (pending) — prometheus/client_golang
// is a direct teacher dependency that the teacher's own source never
// actually imports.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles every collector the registrar publishes.
type Registry struct {
	BindingsTotal       prometheus.Gauge
	LocalBindingsTotal  prometheus.Gauge
	ClashesTotal        prometheus.Counter
	ClashesWonTotal     prometheus.Counter
	RegisterTotal       *prometheus.CounterVec
	NotifyReceivedTotal *prometheus.CounterVec
	BroadcastTotal      *prometheus.CounterVec
	SyncTotal           *prometheus.CounterVec
	PeerDownTotal       prometheus.Counter
	PrincipalDownTotal  prometheus.Counter
}

// New constructs a Registry and registers its collectors with reg.
func New(reg prometheus.Registerer) *Registry {
	m := &Registry{
		BindingsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nameregistry",
			Name:      "bindings_total",
			Help:      "Current number of bindings of any origin in the local table.",
		}),
		LocalBindingsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nameregistry",
			Name:      "local_bindings_total",
			Help:      "Current number of locally-owned bindings.",
		}),
		ClashesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nameregistry",
			Name:      "clashes_total",
			Help:      "Total number of name clashes observed (register_notify against an existing differing principal).",
		}),
		ClashesWonTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nameregistry",
			Name:      "clashes_won_total",
			Help:      "Total number of clashes resolved in favor of the incoming notification.",
		}),
		RegisterTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nameregistry",
			Name:      "register_total",
			Help:      "Total local register() calls by result.",
		}, []string{"result"}),
		NotifyReceivedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nameregistry",
			Name:      "notify_received_total",
			Help:      "Total inbound peer notifications by message type.",
		}, []string{"type"}),
		BroadcastTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nameregistry",
			Name:      "broadcast_total",
			Help:      "Total broadcast sends by message type.",
		}, []string{"type"}),
		SyncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nameregistry",
			Name:      "sync_total",
			Help:      "Total sync_req/sync_resp exchanges by direction.",
		}, []string{"direction"}),
		PeerDownTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nameregistry",
			Name:      "peer_down_total",
			Help:      "Total peer-registrar DOWN events processed.",
		}),
		PrincipalDownTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nameregistry",
			Name:      "principal_down_total",
			Help:      "Total local-principal DOWN events processed.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.BindingsTotal, m.LocalBindingsTotal, m.ClashesTotal, m.ClashesWonTotal,
			m.RegisterTotal, m.NotifyReceivedTotal, m.BroadcastTotal, m.SyncTotal,
			m.PeerDownTotal, m.PrincipalDownTotal,
		)
	}
	return m
}
