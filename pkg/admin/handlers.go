package admin

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/getmockd/mockroute/pkg/requestlog"
	"github.com/getmockd/mockroute/pkg/route"
)

// handleHealth handles GET /health.
func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Uptime:  a.Uptime(),
		Version: a.version,
	})
}

// handleGetStats handles GET /stats.
func (a *API) handleGetStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		Routes:          a.engine.Store().Count(),
		ErrorPercentage: a.engine.ErrorPercentage(),
		Requests:        a.engine.RequestLog().Count(),
		Injector:        a.engine.Injector().Stats(),
	})
}

// handleResetStats handles DELETE /stats.
func (a *API) handleResetStats(w http.ResponseWriter, _ *http.Request) {
	a.engine.Injector().ResetStats()
	a.log.Info("injector stats reset")
	w.WriteHeader(http.StatusNoContent)
}

// handleListRoutes handles GET /routes.
func (a *API) handleListRoutes(w http.ResponseWriter, _ *http.Request) {
	routes := a.engine.Store().List()
	if routes == nil {
		routes = []route.Route{}
	}
	writeJSON(w, http.StatusOK, RouteListResponse{Routes: routes, Count: len(routes)})
}

// routePath maps the wildcard segment back to a table key; /routes/ addresses "/".
func routePath(r *http.Request) string {
	return "/" + r.PathValue("path")
}

// handleGetRoute handles GET /routes/{path...}.
func (a *API) handleGetRoute(w http.ResponseWriter, r *http.Request) {
	p := routePath(r)
	rt, ok := a.engine.Store().Get(p)
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeRouteNotFound, fmt.Sprintf("no route at %s", p))
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

// handleDeleteRoute handles DELETE /routes/{path...}.
func (a *API) handleDeleteRoute(w http.ResponseWriter, r *http.Request) {
	p := routePath(r)
	store := a.engine.Store()
	if !store.Delete(p) {
		writeError(w, http.StatusNotFound, ErrCodeRouteNotFound, fmt.Sprintf("no route at %s", p))
		return
	}
	a.engine.Metrics().SetRoutes(store.Count())
	a.log.Info("route deleted", "path", p)
	w.WriteHeader(http.StatusNoContent)
}

// parseRequestFilter reads the /requests query parameters.
func parseRequestFilter(r *http.Request) (*requestlog.Filter, error) {
	q := r.URL.Query()
	f := &requestlog.Filter{
		Method:  q.Get("method"),
		Path:    q.Get("path"),
		Outcome: q.Get("outcome"),
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"status", &f.StatusCode},
		{"limit", &f.Limit},
		{"offset", &f.Offset},
	}
	for _, p := range ints {
		s := q.Get(p.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer, got %q", p.name, s)
		}
		*p.dst = n
	}
	return f, nil
}

// handleListRequests handles GET /requests.
//
// Query parameters:
//   - method: exact request method
//   - path: path prefix
//   - outcome: dispatch outcome (fixed, matched, injected, ...)
//   - status: response status code
//   - limit, offset: paging over newest-first results
func (a *API) handleListRequests(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRequestFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidQuery, err.Error())
		return
	}

	log := a.engine.RequestLog()
	entries := log.List(filter)
	if entries == nil {
		entries = []*requestlog.Entry{}
	}
	writeJSON(w, http.StatusOK, RequestListResponse{
		Requests: entries,
		Count:    len(entries),
		Total:    log.Count(),
	})
}

// handleGetRequest handles GET /requests/{id}.
func (a *API) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entry := a.engine.RequestLog().Get(id)
	if entry == nil {
		writeError(w, http.StatusNotFound, ErrCodeRequestNotFound, fmt.Sprintf("no request with id %s", id))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleClearRequests handles DELETE /requests.
func (a *API) handleClearRequests(w http.ResponseWriter, _ *http.Request) {
	log := a.engine.RequestLog()
	count := log.Count()
	log.Clear()
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Request logs cleared",
		"cleared": count,
	})
}
