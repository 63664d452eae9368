package commands

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fivetwenty-io/powerschool/pkg/psapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const metricsReadHeaderTimeout = 5 * time.Second

// metrics is set while a --metrics-addr server is running.
var metrics *psapi.Metrics

// StartMetricsServer serves /metrics on --metrics-addr for the lifetime of the
// command. It does nothing when the flag is empty.
func StartMetricsServer(_ *cobra.Command, _ []string) error {
	addr := viper.GetString("metrics_addr")
	if addr == "" {
		return nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics = psapi.NewMetrics(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Warning: metrics server stopped: %v\n", err)
		}
	}()

	return nil
}
