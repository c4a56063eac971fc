package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "storemonitor_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	reportTotal   *prometheus.CounterVec
	reportLatency *prometheus.HistogramVec
	reportErrors  *prometheus.CounterVec

	exportTotal *prometheus.CounterVec

	importRows *prometheus.CounterVec

	snapshotStores       prometheus.Gauge
	snapshotObservations prometheus.Gauge
	snapshotAnchor       prometheus.Gauge
)

// Init registers the report service metrics with the default registry.
func Init() {
	registerOnce.Do(func() {
		reportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_total",
				Help: "Total report generations by scope and result",
			},
			[]string{"scope", "result"},
		)
		reportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_latency_seconds",
				Help:    "Report generation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"scope"},
		)
		reportErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_errors_total",
				Help: "Total report errors by reason",
			},
			[]string{"reason"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		importRows = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "import_rows_total",
				Help: "CSV rows processed at import by table and outcome",
			},
			[]string{"table", "outcome"},
		)
		snapshotStores = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "snapshot_stores",
			Help: "Stores known to the loaded reference snapshot",
		})
		snapshotObservations = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "snapshot_observations",
			Help: "Observations held by the loaded reference snapshot",
		})
		snapshotAnchor = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "snapshot_latest_observation_timestamp_seconds",
			Help: "Unix time of the newest observation in the snapshot",
		})

		prometheus.MustRegister(
			reportTotal,
			reportLatency,
			reportErrors,
			exportTotal,
			importRows,
			snapshotStores,
			snapshotObservations,
			snapshotAnchor,
		)
	})
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveReport records one report generation. scope is "store" or "all".
func ObserveReport(scope, result string, duration time.Duration) {
	if scope == "" {
		scope = "store"
	}
	if result == "" {
		result = ResultSuccess
	}
	if reportTotal != nil {
		reportTotal.WithLabelValues(scope, result).Inc()
	}
	if reportLatency != nil {
		reportLatency.WithLabelValues(scope).Observe(duration.Seconds())
	}
}

// IncReportError increments the report error counter.
func IncReportError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if reportErrors != nil {
		reportErrors.WithLabelValues(reason).Inc()
	}
}

// IncExport counts a served export.
func IncExport(format, result string) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}

// AddImportRows counts imported and skipped CSV rows for a table.
func AddImportRows(table string, imported, skipped int) {
	if importRows == nil {
		return
	}
	if imported > 0 {
		importRows.WithLabelValues(table, "imported").Add(float64(imported))
	}
	if skipped > 0 {
		importRows.WithLabelValues(table, "skipped").Add(float64(skipped))
	}
}

// SetSnapshot publishes the size of the loaded reference snapshot.
func SetSnapshot(stores, observations int, latest time.Time) {
	if snapshotStores != nil {
		snapshotStores.Set(float64(stores))
	}
	if snapshotObservations != nil {
		snapshotObservations.Set(float64(observations))
	}
	if snapshotAnchor != nil && !latest.IsZero() {
		snapshotAnchor.Set(float64(latest.Unix()))
	}
}
