// Package api exposes report generation over HTTP: a ticket snapshot
// comes in as JSON, a finished document goes out as a file download.
package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vigiaops/fieldreport/internal/logging"
)

// Router wires the HTTP surface.
type Router struct {
	mux      *http.ServeMux
	handlers *ReportHandlers
	version  string
	log      zerolog.Logger
}

// NewRouter creates the router with all routes registered.
func NewRouter(handlers *ReportHandlers, version string) http.Handler {
	r := &Router{
		mux:      http.NewServeMux(),
		handlers: handlers,
		version:  version,
		log:      logging.WithComponent("api"),
	}
	r.setupRoutes()
	return requestMiddleware(r.mux)
}

func (r *Router) setupRoutes() {
	r.mux.HandleFunc("/api/health", r.handleHealth)
	r.mux.HandleFunc("/api/version", r.handleVersion)
	r.mux.HandleFunc("/api/reports/ticket", r.handlers.HandleGenerateReport)
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSONResponse(w, map[string]string{"status": "ok"})
}

func (r *Router) handleVersion(w http.ResponseWriter, req *http.Request) {
	writeJSONResponse(w, map[string]string{"version": r.version})
}
