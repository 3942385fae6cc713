package admin

import (
	"net/http"

	"github.com/getmockd/mockroute/pkg/httputil"
)

// Error codes returned in ErrorResponse.Error.
const (
	ErrCodeRouteNotFound   = "route_not_found"
	ErrCodeRequestNotFound = "request_not_found"
	ErrCodeInvalidQuery    = "invalid_query"
	ErrCodeExportFailed    = "export_failed"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	httputil.WriteError(w, status, code, message)
}
