package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_insights_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	ExtractionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_insights_extractions_total",
			Help: "Intercepted responses by outcome.",
		},
		[]string{"outcome"},
	)
	CacheLookupsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_insights_cache_lookups_total",
			Help: "Cache lookups by result.",
		},
		[]string{"result"},
	)
	RetryLoopsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_insights_retry_loops_total",
			Help: "Finished retry loops by outcome.",
		},
		[]string{"outcome"},
	)
	MessagesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "job_insights_messages_total",
			Help: "Messages handled by the background process.",
		},
		[]string{"type", "ok"},
	)
	MessageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "job_insights_message_duration_seconds",
			Help:    "Round trip time of channel requests.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(ExtractionsCounter)
	prometheus.MustRegister(CacheLookupsCounter)
	prometheus.MustRegister(RetryLoopsCounter)
	prometheus.MustRegister(MessagesCounter)
	prometheus.MustRegister(MessageDuration)
}

func StartMetricsServer(port int) {

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", port), mux))
	}()
}
