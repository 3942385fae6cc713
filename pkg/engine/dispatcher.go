package engine

import (
	"net/http"

	"github.com/getmockd/mockroute/internal/storage"
	"github.com/getmockd/mockroute/pkg/chaos"
	"github.com/getmockd/mockroute/pkg/metrics"
	"github.com/getmockd/mockroute/pkg/route"
)

// Outcome describes how a request was resolved.
type Outcome string

// Request outcomes. The values double as metric and request-log labels.
const (
	OutcomeFixed          Outcome = metrics.OutcomeFixed
	OutcomeNotFound       Outcome = metrics.OutcomeNotFound
	OutcomeMethodMismatch Outcome = metrics.OutcomeMethodMismatch
	OutcomeInjected       Outcome = metrics.OutcomeInjected
	OutcomeMatched        Outcome = metrics.OutcomeMatched
	OutcomeUnknownAction  Outcome = metrics.OutcomeUnknownAction
)

// Response is the result of dispatching a request against the route table.
type Response struct {
	Status  int
	Body    string
	Outcome Outcome
}

// Dispatcher resolves requests against a route table.
type Dispatcher struct {
	store           storage.RouteStore
	injector        *chaos.Injector
	errorPercentage int
}

// NewDispatcher creates a Dispatcher. A nil injector uses the global random source.
func NewDispatcher(store storage.RouteStore, injector *chaos.Injector, errorPercentage int) *Dispatcher {
	if injector == nil {
		injector = chaos.NewInjector()
	}
	return &Dispatcher{
		store:           store,
		injector:        injector,
		errorPercentage: errorPercentage,
	}
}

// ErrorPercentage returns the configured injection percentage.
func (d *Dispatcher) ErrorPercentage() int {
	return d.errorPercentage
}

// Dispatch resolves method and path to a response. The route is copied out
// of the table before the response is built.
func (d *Dispatcher) Dispatch(method, path string) Response {
	rt, ok := d.store.Get(path)
	if !ok {
		return Response{Status: http.StatusNotFound, Outcome: OutcomeNotFound}
	}
	if method != rt.Method {
		return Response{Status: http.StatusMethodNotAllowed, Outcome: OutcomeMethodMismatch}
	}

	if rt.Error {
		status := d.injector.PickStatus(d.errorPercentage)
		if status == http.StatusOK {
			return Response{Status: status, Outcome: OutcomeMatched}
		}
		return Response{Status: status, Outcome: OutcomeInjected}
	}

	status := rt.Code
	if !route.ValidCode(status) {
		status = http.StatusOK
	}

	switch rt.Method {
	case http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut:
		return Response{Status: status, Body: rt.Response, Outcome: OutcomeMatched}
	case http.MethodDelete:
		return Response{Status: status, Outcome: OutcomeMatched}
	default:
		return Response{Status: http.StatusNotFound, Outcome: OutcomeUnknownAction}
	}
}

// InjectGlobal draws a status for the /errors endpoint.
func (d *Dispatcher) InjectGlobal() int {
	return d.injector.PickStatus(d.errorPercentage)
}
