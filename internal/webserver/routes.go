package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/promptbench/promptbench/internal/webapi"
)

// registerRoutes builds the full handler chain for the API.
func registerRoutes(cfg Config) http.Handler {
	mux := http.NewServeMux()

	handlers := webapi.NewHandlers(cfg.Pipeline, cfg.Problems, cfg.Store, webapi.WithLogger(cfg.Logger))
	webapi.RegisterRoutes(mux, handlers)
	mux.HandleFunc("GET /{$}", handleRoot)

	return webapi.CORSMiddleware(mux, cfg.AllowedOrigins...)
}

// handleRoot describes the service for a bare GET /.
func handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
		"message":     "promptbench",
		"description": "Comparative benchmarking of prompting techniques",
	})
}
