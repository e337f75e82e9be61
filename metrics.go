package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shadowfine/mongo-php-driver/auth"
)

// exposeMetrics serves the default Prometheus registry until the process exits.
func exposeMetrics(cfg auth.MetricsConfig, logger hclog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Endpoint, promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("Exposing metrics", "address", cfg.Address, "endpoint", cfg.Endpoint)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Failed to serve metrics", "error", err)
	}
}
