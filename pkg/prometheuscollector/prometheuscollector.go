// Package prometheuscollector allows to expose metrics for Prometheus.
//
// Using the provided collector, you can easily expose metrics for slotd in
// the Prometheus exposition format
// (https://prometheus.io/docs/instrumenting/exposition_formats/):
//
//	handler, err := handler.NewHandler(…)
//	collector := prometheuscollector.New(handler.Metrics)
//	prometheus.MustRegister(collector)
package prometheuscollector

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/slotd/slotd/pkg/handler"
)

var (
	requestsTotalDesc = prometheus.NewDesc(
		"slotd_requests_total",
		"Total number of requests served by slotd per method.",
		[]string{"method"}, nil)
	errorsTotalDesc = prometheus.NewDesc(
		"slotd_errors_total",
		"Total number of returned errors per status and error code.",
		[]string{"status", "code"}, nil)
	bytesReceivedDesc = prometheus.NewDesc(
		"slotd_bytes_received",
		"Number of bytes written to storage.",
		nil, nil)
	uploadsCreatedDesc = prometheus.NewDesc(
		"slotd_uploads_created",
		"Number of stored uploads.",
		nil, nil)
	downloadsServedDesc = prometheus.NewDesc(
		"slotd_downloads_served",
		"Number of requests answered with a stored file.",
		nil, nil)
)

type Collector struct {
	metrics handler.Metrics
}

// New creates a new collector which reads from the provided Metrics struct.
func New(metrics handler.Metrics) Collector {
	return Collector{
		metrics: metrics,
	}
}

func (Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- requestsTotalDesc
	descs <- errorsTotalDesc
	descs <- bytesReceivedDesc
	descs <- uploadsCreatedDesc
	descs <- downloadsServedDesc
}

func (c Collector) Collect(metrics chan<- prometheus.Metric) {
	for method, valuePtr := range c.metrics.RequestsTotal {
		metrics <- prometheus.MustNewConstMetric(
			requestsTotalDesc,
			prometheus.CounterValue,
			float64(atomic.LoadUint64(valuePtr)),
			method,
		)
	}

	for httpError, valuePtr := range c.metrics.ErrorsTotal.Load() {
		metrics <- prometheus.MustNewConstMetric(
			errorsTotalDesc,
			prometheus.CounterValue,
			float64(atomic.LoadUint64(valuePtr)),
			strconv.Itoa(httpError.StatusCode),
			httpError.ErrorCode,
		)
	}

	metrics <- prometheus.MustNewConstMetric(
		bytesReceivedDesc,
		prometheus.CounterValue,
		float64(atomic.LoadUint64(c.metrics.BytesReceived)),
	)

	metrics <- prometheus.MustNewConstMetric(
		uploadsCreatedDesc,
		prometheus.CounterValue,
		float64(atomic.LoadUint64(c.metrics.UploadsCreated)),
	)

	metrics <- prometheus.MustNewConstMetric(
		downloadsServedDesc,
		prometheus.CounterValue,
		float64(atomic.LoadUint64(c.metrics.DownloadsServed)),
	)
}
