package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "demsausage_requests_total",
		Help: "Total API requests by endpoint",
	}, []string{"endpoint"})
	BadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "demsausage_bad_requests_total",
		Help: "Requests rejected as bad input by endpoint",
	}, []string{"endpoint"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "demsausage_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	}, []string{"endpoint"})
	NearbyTierTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "demsausage_nearby_tier_total",
		Help: "Nearby searches by the radius tier that produced the answer",
	}, []string{"tier"})
	GeoJSONCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "demsausage_geojson_cache_hits_total",
		Help: "GeoJSON cache hits",
	})
	GeoJSONCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "demsausage_geojson_cache_misses_total",
		Help: "GeoJSON cache misses",
	})
	GeoJSONRegenerateTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "demsausage_geojson_regenerate_total",
		Help: "Explicit GeoJSON cache regenerations",
	})
	GeoJSONBuildDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "demsausage_geojson_build_duration_ms",
		Help:    "Time to query and serialize an election's GeoJSON",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000},
	})
	MailSendTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "demsausage_mail_send_total",
		Help: "Mailgun sends by template and result",
	}, []string{"template", "result"})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(BadRequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(NearbyTierTotal)
	prometheus.MustRegister(GeoJSONCacheHitsTotal)
	prometheus.MustRegister(GeoJSONCacheMissesTotal)
	prometheus.MustRegister(GeoJSONRegenerateTotal)
	prometheus.MustRegister(GeoJSONBuildDurationMs)
	prometheus.MustRegister(MailSendTotal)
}

// Handler：Prometheus 抓取端点
func Handler() http.Handler { return promhttp.Handler() }
