package psapi

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsStartKey = "metrics_start"

// Metrics records API traffic as Prometheus series.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	records  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powerschool_api_requests_total",
				Help: "Total number of PowerSchool API requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "powerschool_api_request_duration_seconds",
				Help:    "PowerSchool API request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powerschool_records_fetched_total",
				Help: "Total number of records fetched per schema",
			},
			[]string{"schema"},
		),
	}

	reg.MustRegister(m.requests, m.duration, m.records)

	return m
}

// RequestInterceptor stamps the request start time.
func (m *Metrics) RequestInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata[metricsStartKey] = time.Now()

		return nil
	}
}

// ResponseInterceptor counts the response and observes its latency.
func (m *Metrics) ResponseInterceptor() ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		endpoint := NormalizeEndpoint(req.Path)

		status := "error"
		if resp.StatusCode > 0 {
			status = strconv.Itoa(resp.StatusCode)
		}

		m.requests.WithLabelValues(req.Method, endpoint, status).Inc()

		if start, ok := req.Metadata[metricsStartKey].(time.Time); ok {
			m.duration.WithLabelValues(req.Method, endpoint).Observe(time.Since(start).Seconds())
		}

		return nil
	}
}

// AddRecords counts records fetched from schema.
func (m *Metrics) AddRecords(schema string, n int) {
	m.records.WithLabelValues(schema).Add(float64(n))
}

// Install adds the metrics interceptors to chain.
func (m *Metrics) Install(chain *InterceptorChain) {
	chain.AddRequestInterceptor(m.RequestInterceptor())
	chain.AddResponseInterceptor(m.ResponseInterceptor())
}

// NormalizeEndpoint replaces primary keys in schema paths with "{pk}" so the
// endpoint label stays bounded.
func NormalizeEndpoint(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")

	// ws/schema/{kind}/{name}/{pk|count|metadata}
	if len(segments) == 5 && segments[0] == "ws" && segments[1] == "schema" {
		switch segments[4] {
		case "count", "metadata":
		default:
			segments[4] = "{pk}"
		}
	}

	return "/" + strings.Join(segments, "/")
}
