package engine

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/getmockd/mockroute/pkg/httputil"
	"github.com/getmockd/mockroute/pkg/logging"
	"github.com/getmockd/mockroute/pkg/route"
)

// MaxRequestBodySize is the maximum request body accepted by /echo and /routes (10MB).
const MaxRequestBodySize = 10 << 20

// UnknownHost is returned by /host when the hostname cannot be read.
const UnknownHost = "Unknown Host"

// Handler serves the fixed endpoints and dispatches everything else
// against the route table.
type Handler struct {
	dispatcher *Dispatcher
	mutator    *Mutator
	log        *slog.Logger
	hostname   func() (string, error)
	fixed      *http.ServeMux
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger for dispatch decisions.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHandler creates a Handler.
func NewHandler(d *Dispatcher, m *Mutator, opts ...HandlerOption) *Handler {
	h := &Handler{
		dispatcher: d,
		mutator:    m,
		log:        logging.Nop(),
		hostname:   os.Hostname,
	}
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /echo", h.handleEcho)
	mux.HandleFunc("GET /host", h.handleHost)
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.HandleFunc("GET /status/{code}", h.handleStatus)
	mux.HandleFunc("POST /status/{code}", h.handleStatus)
	mux.HandleFunc("GET /errors", h.handleErrors)
	mux.HandleFunc("PUT /routes", h.handleRoutes)
	mux.HandleFunc("POST /routes", h.handleRoutes)
	h.fixed = mux

	return h
}

// allowMethods are tried against the fixed endpoints to build an Allow header.
var allowMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// ServeHTTP sends requests matching a fixed endpoint to it and everything
// else to the dispatcher. A fixed path requested with a method it does not
// serve gets 405 and never reaches the route table. Dynamic paths are
// looked up exactly as received.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, pattern := h.fixed.Handler(r); pattern != "" {
		h.fixed.ServeHTTP(w, r)
		return
	}
	if allowed := h.fixedMethods(r); len(allowed) > 0 {
		setOutcome(r, OutcomeMethodMismatch)
		h.log.Warn("method not allowed on fixed endpoint", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.handleDynamic(w, r)
}

// fixedMethods returns the methods a fixed endpoint serves at r's path, or
// nil when the path is not a fixed endpoint.
func (h *Handler) fixedMethods(r *http.Request) []string {
	var allowed []string
	for _, m := range allowMethods {
		if m == r.Method {
			continue
		}
		alt := *r
		alt.Method = m
		if _, pattern := h.fixed.Handler(&alt); pattern != "" {
			allowed = append(allowed, m)
		}
	}
	return allowed
}

func (h *Handler) handleEcho(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeBodyError(w, err)
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) handleHost(w http.ResponseWriter, _ *http.Request) {
	name, err := h.hostname()
	if err != nil || name == "" {
		name = UnknownHost
	}
	httputil.WriteText(w, http.StatusOK, name)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteText(w, http.StatusOK, "OK")
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(r.PathValue("code"))
	if err != nil || !route.ValidCode(code) {
		httputil.WriteText(w, http.StatusBadRequest, "invalid status code\n")
		return
	}
	w.WriteHeader(code)
}

func (h *Handler) handleErrors(w http.ResponseWriter, r *http.Request) {
	status := h.dispatcher.InjectGlobal()
	if status != http.StatusOK {
		setOutcome(r, OutcomeInjected)
	}
	w.WriteHeader(status)
}

func (h *Handler) handleRoutes(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeBodyError(w, err)
		return
	}

	if _, err := h.mutator.ApplyUpdate(body, route.DetectFormat(r.Header.Get("Content-Type"))); err != nil {
		httputil.WriteText(w, http.StatusBadRequest, err.Error()+"\n")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleDynamic(w http.ResponseWriter, r *http.Request) {
	resp := h.dispatcher.Dispatch(r.Method, r.URL.Path)
	setOutcome(r, resp.Outcome)

	switch resp.Outcome {
	case OutcomeNotFound:
		h.log.Warn("route not found", "path", r.URL.Path)
	case OutcomeMethodMismatch:
		h.log.Warn("method mismatch", "method", r.Method, "path", r.URL.Path)
	default:
		h.log.Debug("dynamic route", "method", r.Method, "path", r.URL.Path, "status", resp.Status)
	}

	if resp.Body == "" {
		w.WriteHeader(resp.Status)
		return
	}
	httputil.WriteText(w, resp.Status, resp.Body)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	return io.ReadAll(r.Body)
}

func (h *Handler) writeBodyError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		httputil.WriteText(w, http.StatusRequestEntityTooLarge, "request body too large\n")
		return
	}
	h.log.Warn("failed to read request body", "error", err)
	httputil.WriteText(w, http.StatusBadRequest, "failed to read request body\n")
}
