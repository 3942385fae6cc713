// Package route defines the route definition served by mockroute and the
// decoding rules for partially specified route payloads.
package route

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Default field values applied to partially specified routes.
const (
	DefaultMethod   = http.MethodGet
	DefaultResponse = "OK"
	DefaultCode     = http.StatusOK
)

// Status code bounds accepted for a route.
const (
	MinCode = 100
	MaxCode = 599
)

// ErrInvalidRoute is returned when a route fails validation.
var ErrInvalidRoute = errors.New("invalid route")

// Methods lists the HTTP methods a route may declare. Matching is case-sensitive.
var Methods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// Route maps an exact request path to a canned response.
type Route struct {
	// Method is the only method the route answers to.
	Method string `json:"method" yaml:"method"`
	// Path is the table key. It is compared by exact string equality.
	Path string `json:"path" yaml:"path"`
	// Response is returned verbatim for GET, POST, PATCH and PUT.
	Response string `json:"response" yaml:"response"`
	// Code is the status code of the canned response.
	Code int `json:"code" yaml:"code"`
	// Error hands the status decision to the error injector and discards
	// Code and Response.
	Error bool `json:"error" yaml:"error"`
}

// Defaults returns a route carrying every default field value and no path.
func Defaults() Route {
	return Route{
		Method:   DefaultMethod,
		Response: DefaultResponse,
		Code:     DefaultCode,
	}
}

// IsMethod reports whether m is one of the methods a route may declare.
func IsMethod(m string) bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

// ValidCode reports whether code can be written as a response status.
func ValidCode(code int) bool {
	return code >= MinCode && code <= MaxCode
}

// NormalizePath prefixes p with a slash when it has none.
func NormalizePath(p string) string {
	if p == "" || strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}

// Validate checks that the route can be stored and served.
func (r Route) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidRoute)
	}
	if !IsMethod(r.Method) {
		return fmt.Errorf("%w: %s: unsupported method %q (want one of %s)",
			ErrInvalidRoute, r.Path, r.Method, strings.Join(Methods, ", "))
	}
	if !ValidCode(r.Code) {
		return fmt.Errorf("%w: %s: status code %d outside %d-%d",
			ErrInvalidRoute, r.Path, r.Code, MinCode, MaxCode)
	}
	return nil
}

// String returns "METHOD path".
func (r Route) String() string {
	return r.Method + " " + r.Path
}
