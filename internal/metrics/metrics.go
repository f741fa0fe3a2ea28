package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure reasons used as the "reason" label of ThumbnailFailures.
const (
	ReasonDecode    = "decode"
	ReasonEncode    = "encode"
	ReasonSpec      = "spec"
	ReasonRead      = "read"
	ReasonWrite     = "write"
	ReasonRejected  = "rejected"
	ReasonMalformed = "malformed"
)

var ThumbnailsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "thumbnail_generated_total",
	Help: "Thumbnails written to the destination container.",
}, []string{"source_format", "transport"})

var ThumbnailFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "thumbnail_failures_total",
	Help: "Notifications that did not produce a thumbnail.",
}, []string{"reason", "transport"})

var GenerateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Name:    "thumbnail_generate_duration_seconds",
	Help:    "Time spent decoding, resizing and encoding one image.",
	Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
})

var SourceBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
	Name:    "thumbnail_source_bytes",
	Help:    "Size of downloaded source images.",
	Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
})

var EventsReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "thumbnail_events_received_total",
	Help: "Storage notifications received, before filtering.",
}, []string{"transport"})

var PublishFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "thumbnail_publish_failures_total",
	Help: "Thumbnail-created events that could not be delivered.",
}, []string{"broker"})

func init() {
	prometheus.MustRegister(ThumbnailsGenerated)
	prometheus.MustRegister(ThumbnailFailures)
	prometheus.MustRegister(GenerateDuration)
	prometheus.MustRegister(SourceBytes)
	prometheus.MustRegister(EventsReceived)
	prometheus.MustRegister(PublishFailures)
}

// RegisterRoutes exposes the default registry on GET /metrics.
func RegisterRoutes(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
