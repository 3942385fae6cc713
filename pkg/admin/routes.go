package admin

import (
	"net/http"
)

// registerRoutes sets up all API routes.
func (a *API) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /stats", a.handleGetStats)
	mux.HandleFunc("DELETE /stats", a.handleResetStats)
	mux.Handle("GET /metrics", a.engine.Metrics().Registry.Handler())

	mux.HandleFunc("GET /routes", a.handleListRoutes)
	mux.HandleFunc("GET /routes/{path...}", a.handleGetRoute)
	mux.HandleFunc("DELETE /routes/{path...}", a.handleDeleteRoute)

	mux.HandleFunc("GET /requests", a.handleListRequests)
	mux.HandleFunc("GET /requests/{id}", a.handleGetRequest)
	mux.HandleFunc("DELETE /requests", a.handleClearRequests)

	mux.HandleFunc("GET /openapi.json", a.handleGetOpenAPISpec)
	mux.HandleFunc("GET /openapi.yaml", a.handleGetOpenAPISpec)
}
