// Package metrics provides Prometheus metrics for btmanager runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "btmanager"

var (
	// RunsTotal tracks completed runs by result (completed, skipped)
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of policy runs",
		},
		[]string{"result"},
	)

	// RunDuration tracks how long a run takes
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of policy runs in seconds",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 300, 900},
		},
	)

	// LastRunTimestamp is the unix time the last run finished
	LastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished run",
		},
	)

	// TorrentsSeen tracks torrents inspected per downloader
	TorrentsSeen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "torrents_seen",
			Help:      "Torrents inspected in the last run",
		},
		[]string{"downloader", "class"},
	)

	// ActionsTotal tracks policy actions by downloader, action and outcome
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Total number of policy actions by outcome",
		},
		[]string{"downloader", "action", "outcome"},
	)

	// DownloaderErrors tracks downloaders skipped during a run
	DownloaderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloader_errors_total",
			Help:      "Total number of downloaders skipped because of resolve or fetch errors",
		},
		[]string{"downloader", "stage"},
	)
)

func init() {
	prometheus.MustRegister(
		RunsTotal,
		RunDuration,
		LastRunTimestamp,
		TorrentsSeen,
		ActionsTotal,
		DownloaderErrors,
	)
}

// RecordRun records a finished run
func RecordRun(result string, duration time.Duration) {
	RunsTotal.WithLabelValues(result).Inc()
	RunDuration.Observe(duration.Seconds())
	LastRunTimestamp.SetToCurrentTime()
}

// RecordAction records the outcome of a single policy action
func RecordAction(downloader, action, outcome string) {
	ActionsTotal.WithLabelValues(downloader, action, outcome).Inc()
}

// RecordTorrents records how many torrents of a downloader were BT and how many were not
func RecordTorrents(downloader string, bt, other int) {
	TorrentsSeen.WithLabelValues(downloader, "bt").Set(float64(bt))
	TorrentsSeen.WithLabelValues(downloader, "other").Set(float64(other))
}

// RecordDownloaderError records a downloader skipped at the given stage (resolve, fetch)
func RecordDownloaderError(downloader, stage string) {
	DownloaderErrors.WithLabelValues(downloader, stage).Inc()
}

// Handler returns the HTTP handler serving the metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
