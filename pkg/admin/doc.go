// Package admin provides a read-mostly REST API for inspecting a running
// mockroute server.
//
// The admin API listens on its own port so that none of its paths can
// shadow a dynamic route. Endpoints:
//
//	GET    /health          - Liveness and uptime
//	GET    /stats           - Route count, error percentage and injector counters
//	DELETE /stats           - Reset injector counters
//	GET    /routes          - List the route table
//	GET    /routes/{path}   - Get one route
//	DELETE /routes/{path}   - Remove one route
//	GET    /requests        - List recent requests (filters: method, path, outcome, status, limit, offset)
//	GET    /requests/{id}   - Get one request
//	DELETE /requests        - Clear request history
//	GET    /metrics         - Prometheus metrics
//	GET    /openapi.json    - OpenAPI 3 description of the route table
//	GET    /openapi.yaml    - The same document as YAML
//
// Route updates go through PUT|POST /routes on the main listener.
package admin
