package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/sla-bill-toolkit/pkg/report"
)

// RunMetrics holds the gauges of one billing run on a private registry.
type RunMetrics struct {
	registry *prometheus.Registry

	lastRun    prometheus.Gauge
	routes     prometheus.Gauge
	routeKM    prometheus.Gauge
	faults     *prometheus.GaugeVec
	amounts    *prometheus.GaugeVec
	capApplied prometheus.Gauge
	stages     *prometheus.GaugeVec
	failures   *prometheus.CounterVec
}

// NewRunMetrics registers the run gauges.
func NewRunMetrics() *RunMetrics {
	registry := prometheus.NewRegistry()
	m := &RunMetrics{
		registry: registry,
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sla_bill_last_run_timestamp_seconds",
			Help: "Unix timestamp of the latest billing run.",
		}),
		routes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sla_bill_routes",
			Help: "Routes in the route registry.",
		}),
		routeKM: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sla_bill_route_km",
			Help: "Total route length in km.",
		}),
		faults: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sla_bill_faults",
			Help: "Fault log rows by state.",
		}, []string{"state"}),
		amounts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sla_bill_amount_rupees",
			Help: "Bill amounts by kind.",
		}, []string{"kind"}),
		capApplied: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sla_bill_mttr_cap_applied",
			Help: "1 when the MTTR penalty was capped.",
		}),
		stages: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sla_bill_stage_duration_seconds",
			Help: "Wall time of each run stage.",
		}, []string{"stage"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sla_bill_run_failures_total",
			Help: "Failed runs by stage.",
		}, []string{"stage"}),
	}

	registry.MustRegister(
		m.lastRun,
		m.routes,
		m.routeKM,
		m.faults,
		m.amounts,
		m.capApplied,
		m.stages,
		m.failures,
	)
	return m
}

// Registry exposes the private registry.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStage records the wall time of a stage.
func (m *RunMetrics) ObserveStage(stage string, d time.Duration) {
	m.stages.WithLabelValues(stage).Set(d.Seconds())
}

// IncFailure counts a failed run.
func (m *RunMetrics) IncFailure(stage string) {
	m.failures.WithLabelValues(stage).Inc()
}

// ObserveBill records the figures of a completed bill.
func (m *RunMetrics) ObserveBill(b report.Bill, at time.Time) {
	m.lastRun.Set(float64(at.UTC().Unix()))
	m.routes.Set(float64(len(b.Registry.Routes)))
	m.routeKM.Set(b.Registry.TotalKM())

	m.faults.WithLabelValues("valid").Set(float64(len(b.Faults.Valid)))
	m.faults.WithLabelValues("invalid").Set(float64(len(b.Faults.Invalid)))
	m.faults.WithLabelValues("exempt").Set(float64(b.Faults.ExemptCount()))
	m.faults.WithLabelValues("missing_in_a").Set(float64(len(b.Faults.MissingRoutes())))

	a := b.Assessment
	amounts := map[string]decimal.Decimal{
		"total_basic":      a.TotalBasic,
		"mttr_gross":       a.Slabs.Gross,
		"mttr_net":         a.Slabs.Net,
		"availability":     a.AvailabilityNet,
		"system_penalty":   a.SystemPenalty,
		"adopted_penalty":  a.AdoptedPenalty,
		"recovery":         a.Recovery,
		"total_deductions": b.Ledger.TotalDeductions,
		"net_payable":      b.Ledger.NetPayable,
	}
	for kind, v := range amounts {
		f, _ := v.Float64()
		m.amounts.WithLabelValues(kind).Set(f)
	}

	if a.Cap.Applied {
		m.capApplied.Set(1)
	} else {
		m.capApplied.Set(0)
	}
}

// WriteTextfile writes the registry in the node exporter textfile format.
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
