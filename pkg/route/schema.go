package route

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrSchema is returned when a route object does not match the route schema.
var ErrSchema = errors.New("route does not match schema")

// objectSchema describes a single, possibly partial, route object.
// Unknown keys are ignored.
const objectSchema = `{
  "type": "object",
  "properties": {
    "method":   {"type": "string", "enum": ["GET", "POST", "PUT", "PATCH", "DELETE"]},
    "path":     {"type": "string"},
    "response": {"type": "string"},
    "code":     {"type": "integer", "minimum": 100, "maximum": 599},
    "error":    {"type": "boolean"}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func routeSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("route.json", strings.NewReader(objectSchema)); err != nil {
			schemaErr = fmt.Errorf("failed to add route schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("route.json")
	})
	return compiledSchema, schemaErr
}

// validateSchema checks a JSON-encoded route object against the route schema.
func validateSchema(raw []byte) error {
	schema, err := routeSchema()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}

	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %s", ErrSchema, strings.Join(schemaMessages(verr, nil), "; "))
		}
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}

// schemaMessages flattens the leaves of a validation error tree.
func schemaMessages(err *jsonschema.ValidationError, out []string) []string {
	if len(err.Causes) == 0 {
		field := strings.TrimPrefix(err.InstanceLocation, "/")
		if field == "" {
			return append(out, err.Message)
		}
		return append(out, strings.ReplaceAll(field, "/", ".")+": "+err.Message)
	}
	for _, cause := range err.Causes {
		out = schemaMessages(cause, out)
	}
	return out
}
