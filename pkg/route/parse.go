package route

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"

	"gopkg.in/yaml.v3"
)

// ErrInvalidPayload is returned when a route update payload cannot be used.
var ErrInvalidPayload = errors.New("invalid route payload")

// Format identifies the encoding of a route payload.
type Format string

// Payload formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat picks the payload format from a Content-Type header value.
// Anything that is not a YAML media type is treated as JSON.
func DetectFormat(contentType string) Format {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatJSON
	}
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseError reports why a route payload was rejected.
// Index is the offending entry, or -1 when the payload as a whole is malformed.
type ParseError struct {
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %v", ErrInvalidPayload, e.Err)
	}
	return fmt.Sprintf("%s: entry %d: %v", ErrInvalidPayload, e.Index, e.Err)
}

// Unwrap exposes both ErrInvalidPayload and the underlying cause.
func (e *ParseError) Unwrap() []error {
	return []error{ErrInvalidPayload, e.Err}
}

// partial is a route object as written by a client; nil fields take defaults.
type partial struct {
	Method   *string `json:"method"`
	Path     *string `json:"path"`
	Response *string `json:"response"`
	Code     *int    `json:"code"`
	Error    *bool   `json:"error"`
}

func (p partial) withDefaults() Route {
	r := Defaults()
	if p.Method != nil {
		r.Method = *p.Method
	}
	if p.Path != nil {
		r.Path = NormalizePath(*p.Path)
	}
	if p.Response != nil {
		r.Response = *p.Response
	}
	if p.Code != nil {
		r.Code = *p.Code
	}
	if p.Error != nil {
		r.Error = *p.Error
	}
	return r
}

// Decode turns one generic route object (as produced by encoding/json or
// yaml.v3) into a Route with defaults applied. The result is not validated;
// callers that need a complete route call Validate.
func Decode(v any) (Route, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Route{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if err := validateSchema(raw); err != nil {
		return Route{}, err
	}

	var p partial
	if err := json.Unmarshal(raw, &p); err != nil {
		return Route{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return p.withDefaults(), nil
}

// Parse decodes an array of route objects. Either every entry is returned
// valid and defaulted, or none is and the error is a *ParseError.
func Parse(data []byte, format Format) ([]Route, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Index: -1, Err: errors.New("empty payload")}
	}

	var items []any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &items); err != nil {
			return nil, &ParseError{Index: -1, Err: err}
		}
	default:
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, &ParseError{Index: -1, Err: err}
		}
	}

	routes := make([]Route, 0, len(items))
	for i, item := range items {
		r, err := Decode(item)
		if err != nil {
			return nil, &ParseError{Index: i, Err: err}
		}
		if err := r.Validate(); err != nil {
			return nil, &ParseError{Index: i, Err: err}
		}
		routes = append(routes, r)
	}
	return routes, nil
}
