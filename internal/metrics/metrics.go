package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecipesComposed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_recipes_composed_total",
			Help: "Recipe compositions written, by operation (create, update, delete)",
		},
		[]string{"operation"},
	)

	ShoppingListLines = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodgram_shopping_list_lines",
			Help:    "Distinct ingredient lines per rendered shopping list",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	ReferenceCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_reference_cache_lookups_total",
			Help: "Reference data cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
