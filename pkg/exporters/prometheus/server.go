package prometheus

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/supporttools/sockperf-exporter/pkg/logger"
)

// startHTTPServer starts an HTTP server to serve the /metrics endpoint.
// Listening happens synchronously so a port conflict is reported to the
// caller; failure to bind the scrape port is the one fatal startup condition.
func startHTTPServer(addr, path string, registry *prometheus.Registry) (*http.Server, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})

	mux := http.NewServeMux()
	mux.Handle(path, handler)

	// Add health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"sockperf-exporter"}`))
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	go func() {
		logger.Infof("Serving metrics on %s%s", addr, path)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Metrics server error: %v", err)
		}
	}()

	return server, nil
}

// shutdownServer gracefully shuts down the HTTP server
func shutdownServer(server *http.Server, timeout time.Duration) error {
	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warnf("Metrics server shutdown error: %v", err)
		return err
	}

	return nil
}
