package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/mockroute/pkg/chaos"
	"github.com/getmockd/mockroute/pkg/route"
)

// OpenAPIVersion is the OpenAPI version of generated documents.
const OpenAPIVersion = "3.0.3"

// BuildOpenAPI describes routes as an OpenAPI document. Error-flagged
// routes list every status the injector can draw plus 200.
func BuildOpenAPI(routes []route.Route, version string) *openapi3.T {
	if version == "" {
		version = "dev"
	}
	doc := &openapi3.T{
		OpenAPI: OpenAPIVersion,
		Info: &openapi3.Info{
			Title:       "mockroute",
			Description: "Routes currently served by this mockroute instance.",
			Version:     version,
		},
		Paths: openapi3.NewPaths(),
	}

	for _, rt := range routes {
		op := openapi3.NewOperation()
		op.OperationID = operationID(rt)
		op.Summary = fmt.Sprintf("%s %s", rt.Method, rt.Path)
		op.Responses = routeResponses(rt)
		doc.AddOperation(rt.Path, rt.Method, op)
	}
	return doc
}

func routeResponses(rt route.Route) *openapi3.Responses {
	if rt.Error {
		opts := []openapi3.NewResponsesOption{
			openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().WithDescription("No error injected"),
			}),
		}
		for _, code := range chaos.ErrorCodes {
			opts = append(opts, openapi3.WithStatus(code, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().WithDescription("Injected " + http.StatusText(code)),
			}))
		}
		return openapi3.NewResponses(opts...)
	}

	code := rt.Code
	if !route.ValidCode(code) {
		code = http.StatusOK
	}
	resp := openapi3.NewResponse().WithDescription(statusDescription(code))
	if rt.Method != http.MethodDelete {
		resp.Content = openapi3.Content{
			"text/plain": &openapi3.MediaType{Example: rt.Response},
		}
	}
	return openapi3.NewResponses(openapi3.WithStatus(code, &openapi3.ResponseRef{Value: resp}))
}

func statusDescription(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return fmt.Sprintf("Status %d", code)
}

// operationID derives a stable identifier such as "get_api_users".
func operationID(rt route.Route) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(rt.Method))
	for _, r := range rt.Path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// handleGetOpenAPISpec handles GET /openapi.json and GET /openapi.yaml.
// ?format=yaml also selects YAML.
func (a *API) handleGetOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	doc := BuildOpenAPI(a.engine.Store().List(), a.version)

	asYAML := r.URL.Path == "/openapi.yaml" || r.URL.Query().Get("format") == "yaml"
	if asYAML {
		// Round-trip through JSON so the YAML carries the same field names.
		raw, err := json.Marshal(doc)
		if err != nil {
			writeError(w, http.StatusInternalServerError, ErrCodeExportFailed, err.Error())
			return
		}
		var tree any
		if err := json.Unmarshal(raw, &tree); err != nil {
			writeError(w, http.StatusInternalServerError, ErrCodeExportFailed, err.Error())
			return
		}
		out, err := yaml.Marshal(tree)
		if err != nil {
			writeError(w, http.StatusInternalServerError, ErrCodeExportFailed, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}
