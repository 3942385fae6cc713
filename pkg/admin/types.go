package admin

import (
	"github.com/getmockd/mockroute/pkg/chaos"
	"github.com/getmockd/mockroute/pkg/requestlog"
	"github.com/getmockd/mockroute/pkg/route"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  int    `json:"uptime"`
	Version string `json:"version,omitempty"`
}

// StatsResponse is returned by GET /stats.
type StatsResponse struct {
	Routes          int         `json:"routes"`
	ErrorPercentage int         `json:"errorPercentage"`
	Requests        int         `json:"requests"`
	Injector        chaos.Stats `json:"injector"`
}

// RouteListResponse is returned by GET /routes.
type RouteListResponse struct {
	Routes []route.Route `json:"routes"`
	Count  int           `json:"count"`
}

// RequestListResponse is returned by GET /requests.
type RequestListResponse struct {
	Requests []*requestlog.Entry `json:"requests"`
	Count    int                 `json:"count"`
	Total    int                 `json:"total"`
}

// ErrorResponse is the body of every admin error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
