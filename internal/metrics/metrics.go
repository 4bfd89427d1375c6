package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	GradeEdits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coursebook", Name: "grade_edits_total", Help: "Grade cell edits applied",
	})
	RegradesSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coursebook", Name: "regrades_submitted_total", Help: "Regrade requests submitted",
	})
	RegradesToggled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coursebook", Name: "regrades_toggled_total", Help: "Regrade resolution toggles",
	})
	FanoutCells = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coursebook", Name: "fanout_cells_created_total", Help: "Grade cells created by enrollment/assignment fan-out",
	})
	OpError = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coursebook", Name: "op_errors_total", Help: "Gradebook operation errors",
	}, []string{"op"})
	RegradeBacklog = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "coursebook", Name: "regrade_backlog", Help: "Currently unresolved regrade requests",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "coursebook", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(GradeEdits, RegradesSubmitted, RegradesToggled, FanoutCells, OpError, RegradeBacklog, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
