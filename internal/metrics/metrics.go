package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	InterviewsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interviewmate_interviews_started_total",
		Help: "Number of interview sessions created.",
	})
	InterviewsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interviewmate_interviews_completed_total",
		Help: "Number of interview sessions completed.",
	})
	ReportFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interviewmate_report_generation_failures_total",
		Help: "Number of failed AI report generations.",
	})
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interviewmate_webhook_events_total",
		Help: "Voice provider webhook events received, by type.",
	}, []string{"type"})
)

// Serve exposes /metrics on its own listener, separate from the API
// port.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
