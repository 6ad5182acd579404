package cli

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slotd/slotd/pkg/handler"
	"github.com/slotd/slotd/pkg/prometheuscollector"
)

// MetricsOpenConnections tracks the number of currently open connections,
// maintained by the timeout-aware listener.
var MetricsOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "slotd_connections_open",
	Help: "Current number of open connections.",
})

func SetupMetrics(mux *http.ServeMux, handler *handler.Handler) {
	prometheus.MustRegister(MetricsOpenConnections)
	prometheus.MustRegister(prometheuscollector.New(handler.Metrics))

	stdout.Printf("Using %s as the metrics path.\n", Flags.MetricsPath)

	mux.Handle(Flags.MetricsPath, promhttp.Handler())
}
