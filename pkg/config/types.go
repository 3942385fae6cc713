package config

import (
	"net"
	"sort"
	"strconv"

	"github.com/getmockd/mockroute/pkg/route"
)

// Defaults for a server configuration.
const (
	DefaultFile     = "routes.yml"
	DefaultPort     = 8080
	DefaultHostname = "0.0.0.0"
)

// ServerConfig is the parsed configuration file.
type ServerConfig struct {
	// Routes is the initial route table keyed by path.
	Routes map[string]route.Route

	// ErrorPercentage is the chance, 0 to 100, that an error-flagged route
	// or /errors answers with an injected error status. Values above 100
	// always inject.
	ErrorPercentage int

	Port     int
	Hostname string
}

// DefaultConfig returns an empty configuration listening on 0.0.0.0:8080.
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Routes:   make(map[string]route.Route),
		Port:     DefaultPort,
		Hostname: DefaultHostname,
	}
}

// Address returns the listen address as hostname:port.
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Hostname, strconv.Itoa(c.Port))
}

// RouteList returns the configured routes sorted by path.
func (c *ServerConfig) RouteList() []route.Route {
	routes := make([]route.Route, 0, len(c.Routes))
	for _, r := range c.Routes {
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Path < routes[j].Path })
	return routes
}
