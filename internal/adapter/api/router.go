package api

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/V4T54L/restnav/internal/adapter/api/handler"
)

// NewRouter creates and configures the HTTP router of the log view server.
func NewRouter(logView handler.LogViewer, broker *handler.SSEBroker, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	logHandler := handler.NewLogHandler(logView, logger)

	mux.HandleFunc("GET /health", logHandler.HealthCheck)

	// Log
	mux.HandleFunc("GET /entries", logHandler.ListEntries)
	mux.HandleFunc("GET /entries/{id}", logHandler.GetEntry)
	mux.HandleFunc("POST /entries", logHandler.TrackEntry)

	// Control
	mux.HandleFunc("POST /views/{title}/close", logHandler.CloseView)
	mux.HandleFunc("POST /reset", logHandler.Reset)

	// Streams
	mux.Handle("GET /events", broker)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}
