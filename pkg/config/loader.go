package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/mockroute/pkg/route"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
	ErrMissingRoutes    = errors.New("configuration has no routes section")
	ErrInvalidRoute     = errors.New("invalid route in configuration")
	ErrInvalidPort      = errors.New("invalid port")
)

// document is the raw shape of a configuration file. Scalars that accept
// more than one type are kept as nodes and interpreted by Parse.
type document struct {
	Routes          yaml.Node `yaml:"routes"`
	ErrorPercentage yaml.Node `yaml:"error_percentage"`
	Port            yaml.Node `yaml:"port"`
	Hostname        string    `yaml:"hostname"`
}

// LoadFromFile reads a ServerConfig from a YAML or JSON file.
// Files ending in .json must be valid JSON; anything else is parsed as YAML.
func LoadFromFile(path string) (*ServerConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" && !json.Valid(data) {
		return nil, fmt.Errorf("%w in file: %s", ErrInvalidJSON, path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML or JSON configuration document.
func Parse(data []byte) (*ServerConfig, error) {
	if json.Valid(data) {
		// JSON may use tabs, which YAML forbids as indentation.
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		out, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		data = out
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	cfg := DefaultConfig()
	if doc.Hostname != "" {
		cfg.Hostname = doc.Hostname
	}

	port, err := parsePort(&doc.Port)
	if err != nil {
		return nil, err
	}
	cfg.Port = port
	cfg.ErrorPercentage = parsePercentage(&doc.ErrorPercentage)

	routes, err := parseRoutes(&doc.Routes)
	if err != nil {
		return nil, err
	}
	cfg.Routes = routes
	return cfg, nil
}

// parsePercentage is lenient: absent, unparseable and negative values all
// mean "never inject".
func parsePercentage(n *yaml.Node) int {
	if n.Kind != yaml.ScalarNode {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(n.Value))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parsePort(n *yaml.Node) (int, error) {
	switch {
	case n.Kind == 0, n.Kind == yaml.ScalarNode && n.Tag == "!!null":
		return DefaultPort, nil
	case n.Kind != yaml.ScalarNode:
		return 0, fmt.Errorf("%w: expected a number (line %d)", ErrInvalidPort, n.Line)
	}
	v, err := strconv.Atoi(strings.TrimSpace(n.Value))
	if err != nil || v < 0 || v > 65535 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, n.Value)
	}
	return v, nil
}

func parseRoutes(n *yaml.Node) (map[string]route.Route, error) {
	routes := make(map[string]route.Route)

	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			path := route.NormalizePath(key.Value)

			r, err := decodeRoute(val)
			if err != nil {
				return nil, fmt.Errorf("%w: %s (line %d): %w", ErrInvalidRoute, key.Value, key.Line, err)
			}
			// The key is the table key; a path field inside the value is ignored.
			r.Path = path
			if err := r.Validate(); err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidRoute, key.Line, err)
			}
			routes[path] = r
		}

	case yaml.SequenceNode:
		for i, item := range n.Content {
			r, err := decodeRoute(item)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d (line %d): %w", ErrInvalidRoute, i, item.Line, err)
			}
			if err := r.Validate(); err != nil {
				return nil, fmt.Errorf("%w: entry %d (line %d): %w", ErrInvalidRoute, i, item.Line, err)
			}
			routes[r.Path] = r
		}

	case 0:
		return nil, ErrMissingRoutes

	default:
		if n.Tag == "!!null" {
			return nil, ErrMissingRoutes
		}
		return nil, fmt.Errorf("%w: routes must be a mapping or a list (line %d)", ErrInvalidRoute, n.Line)
	}

	return routes, nil
}

// decodeRoute decodes one route node. A null node is a route made only of
// defaults. A plain scalar response such as 42 or true is kept as its text.
func decodeRoute(n *yaml.Node) (route.Route, error) {
	var v any
	if err := stringifyResponse(n).Decode(&v); err != nil {
		return route.Route{}, err
	}
	if v == nil {
		v = map[string]any{}
	}
	return route.Decode(v)
}

// stringifyResponse returns n with a non-string scalar "response" value
// retagged as a string. n itself is not modified.
func stringifyResponse(n *yaml.Node) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return n
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if key.Value != "response" || val.Kind != yaml.ScalarNode {
			continue
		}
		if val.Tag == "!!str" || val.Tag == "!!null" {
			return n
		}
		out := *n
		out.Content = append([]*yaml.Node(nil), n.Content...)
		str := *val
		str.Tag = "!!str"
		out.Content[i+1] = &str
		return &out
	}
	return n
}
