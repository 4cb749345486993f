package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouteOptions struct {
	CORSOrigin string
	Metrics    bool
}

// Routes wires every endpoint behind CORS and request logging.
func Routes(h *Handler, log *zap.Logger, opts RouteOptions) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Home)
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/calculate_bmi", h.CalculateBMI)
	mux.HandleFunc("/predict", h.Predict)
	if opts.Metrics {
		mux.Handle("/metrics", promhttp.Handler())
	}

	origin := opts.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	return WithRequestLogging(log, EnableCORS(origin, mux))
}
