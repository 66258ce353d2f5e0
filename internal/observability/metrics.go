package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Interactions counts like/dislike/flag/unflag/visit requests by outcome.
	Interactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcase_project_interactions_total",
		Help: "Total project interactions by kind and outcome",
	}, []string{"kind", "outcome"})

	// ProjectsCreated counts created projects.
	ProjectsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "showcase_projects_created_total",
		Help: "Total number of projects created",
	})

	// ImagesProcessed counts processed upload images by result.
	ImagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcase_images_processed_total",
		Help: "Total number of processed images by result",
	}, []string{"result"})

	// ImageProcessingLatency records how long a single image takes to decode, resize and encode.
	ImageProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "showcase_image_processing_seconds",
		Help:    "Image processing latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcase_cache_lookups_total",
		Help: "Total cache lookups by result",
	}, []string{"result"})

	// SlowQueries counts database queries slower than the logging threshold.
	SlowQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "showcase_db_slow_queries_total",
		Help: "Total number of slow database queries",
	})

	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcase_redis_errors_total",
		Help: "Total number of failed Redis commands",
	}, []string{"command"})

	// RedisCommandLatency records Redis round trips by command name.
	RedisCommandLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "showcase_redis_command_seconds",
		Help:    "Redis command latency in seconds",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}, []string{"command"})
)

// RecordInteraction increments the interaction counter.
func RecordInteraction(kind, outcome string) {
	Interactions.WithLabelValues(kind, outcome).Inc()
}

// TrackImage returns a function that records the processing latency when called (e.g. defer).
func TrackImage() func() {
	start := time.Now()
	return func() {
		ImageProcessingLatency.Observe(time.Since(start).Seconds())
	}
}
