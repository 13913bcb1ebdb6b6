package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	SubmissionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "induction_submission_transitions_total",
			Help: "Submission status changes",
		},
		[]string{"from", "to"},
	)

	NewChaptersDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "induction_new_chapters_detected_total",
			Help: "Submissions reopened or merged because chapters were added to the live induction",
		},
	)

	AnswersSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "induction_answers_saved_total",
			Help: "Answers written by learners",
		},
	)

	VideosCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "induction_videos_completed_total",
			Help: "Chapter videos marked as fully watched",
		},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			SubmissionTransitions,
			NewChaptersDetected,
			AnswersSaved,
			VideosCompleted,
		)
	})
}

// Middleware records count and latency per route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		endpoint := c.Route().Path

		RequestCounter.WithLabelValues(c.Method(), endpoint, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(c.Method(), endpoint).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

// RecordTransition counts a submission status change. Same-state moves are ignored.
func RecordTransition(from, to string) {
	if from == to {
		return
	}
	SubmissionTransitions.WithLabelValues(from, to).Inc()
}
