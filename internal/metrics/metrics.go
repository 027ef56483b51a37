// Package metrics defines the Prometheus collectors of the study service
// and the helpers that record into them. Collectors register with the
// default registry, which /metrics exposes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "transcribe"

// Submission kinds.
const (
	KindNew      = "new"
	KindReplaced = "replaced"
)

// Rejection reasons.
const (
	ReasonInvalidPayload = "invalid_payload"
	ReasonValidation     = "validation"
	ReasonPersistence    = "persistence"
)

// Save results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

var (
	// submissionsRecorded counts accepted submissions.
	// Labels: kind (new, replaced)
	submissionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "study",
		Name:      "submissions_recorded_total",
		Help:      "Accepted submissions by whether they replaced an earlier one",
	}, []string{"kind"})

	// submissionsRejected counts refused submissions.
	// Labels: reason (invalid_payload, validation, persistence)
	submissionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "study",
		Name:      "submissions_rejected_total",
		Help:      "Refused submissions by reason",
	}, []string{"reason"})

	// liveSubmissions is the number of users with a live submission.
	liveSubmissions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "study",
		Name:      "live_submissions",
		Help:      "Users with a live submission",
	})

	// persistenceSaves counts snapshot saves.
	// Labels: result (success, failure, skipped)
	persistenceSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "persistence",
		Name:      "saves_total",
		Help:      "Study snapshot saves by result",
	}, []string{"result"})

	// saveDuration measures how long writing a snapshot takes.
	saveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "persistence",
		Name:      "save_duration_seconds",
		Help:      "Study snapshot save latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	// taskFailures counts background tasks that returned an error.
	// Labels: type (task type)
	taskFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "task",
		Name:      "failures_total",
		Help:      "Background task failures by task type",
	}, []string{"type"})

	// httpRequests counts served requests.
	// Labels: route (chi route pattern), method, status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status"})
)

// RecordSubmission counts an accepted submission.
func RecordSubmission(replaced bool, live int) {
	kind := KindNew
	if replaced {
		kind = KindReplaced
	}
	submissionsRecorded.WithLabelValues(kind).Inc()
	liveSubmissions.Set(float64(live))
}

// RecordRejection counts a refused submission.
func RecordRejection(reason string) {
	submissionsRejected.WithLabelValues(reason).Inc()
}

// SetLiveSubmissions sets the live submission gauge, e.g. after loading.
func SetLiveSubmissions(n int) {
	liveSubmissions.Set(float64(n))
}

// RecordSave counts a snapshot save attempt. Skipped saves carry no
// duration.
func RecordSave(result string, d time.Duration) {
	persistenceSaves.WithLabelValues(result).Inc()
	if result != ResultSkipped {
		saveDuration.Observe(d.Seconds())
	}
}

// RecordTaskFailure counts a failed background task.
func RecordTaskFailure(taskType string) {
	taskFailures.WithLabelValues(taskType).Inc()
}

// RecordHTTPRequest counts a served request.
func RecordHTTPRequest(route, method string, status int) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
