package internal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

var QueriesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "gridbase_queries_total",
	Help: "The total number of row queries executed",
})

var QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "gridbase_query_duration_seconds",
	Help:    "The duration of row queries",
	Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
})

var CountTimeouts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "gridbase_count_timeouts_total",
	Help: "The number of count queries abandoned past their budget",
})

var CacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "gridbase_query_cache_hits_total",
	Help: "The number of compiled query cache hits",
})

var CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
	Name: "gridbase_query_cache_misses_total",
	Help: "The number of compiled query cache misses",
})

// QueryMetrics is a snapshot of the compiler's counters.
type QueryMetrics struct {
	QueriesTotal  float64 `json:"queriesTotal"`
	QueryDuration float64 `json:"queryDuration"`
	CountTimeouts float64 `json:"countTimeouts"`
	CacheHits     float64 `json:"cacheHits"`
	CacheMisses   float64 `json:"cacheMisses"`
}

// collect calls the function for each metric associated with the Collector
func collect(col prometheus.Collector, do func(*dto.Metric)) {
	c := make(chan prometheus.Metric)
	go func(c chan prometheus.Metric) {
		col.Collect(c)
		close(c)
	}(c)
	for x := range c {
		m := dto.Metric{}
		_ = x.Write(&m)
		do(&m)
	}
}

// getMetricValue returns the sum of the Counter metrics associated with the
// Collector. If the metric is a Histogram then number of samples is used.
func getMetricValue(col prometheus.Collector) float64 {
	var total float64
	collect(col, func(m *dto.Metric) {
		if h := m.GetHistogram(); h != nil {
			total += float64(h.GetSampleCount())
		} else {
			total += m.GetCounter().GetValue()
		}
	})
	return total
}

// CollectStats returns a snapshot of the compiler metrics for embedding.
func CollectStats() *QueryMetrics {
	var s QueryMetrics
	s.QueriesTotal = getMetricValue(QueriesTotal)
	s.QueryDuration = getMetricValue(QueryDuration)
	s.CountTimeouts = getMetricValue(CountTimeouts)
	s.CacheHits = getMetricValue(CacheHits)
	s.CacheMisses = getMetricValue(CacheMisses)
	return &s
}
