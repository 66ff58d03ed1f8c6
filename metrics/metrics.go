package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnnotationsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "annotations_submitted_total",
		Help: "Annotations committed to the store",
	})
	AnnotationRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "annotation_rejections_total",
		Help: "Annotation submissions rejected, by reason",
	}, []string{"reason"})
	Assignments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "article_assignments_total",
		Help: "Next-article requests, by outcome (assigned | exhausted)",
	}, []string{"outcome"})
	ArticlesIngested = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "articles_ingested_total",
		Help: "Articles created, by ingestion format",
	}, []string{"format"})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// MustRegister registers the application collectors plus Go runtime and
// process collectors.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		AnnotationsSubmitted,
		AnnotationRejections,
		Assignments,
		ArticlesIngested,
		HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler exposes a registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// Middleware observes request latency labelled by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
