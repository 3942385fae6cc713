// Package cli provides the command-line interface for mockroute.
//
// Commands:
//   - serve: Run the mock server (the default when no command is given)
//   - validate: Check a config file without starting anything
//   - routes push: Send a route update to a running server
//   - routes list: Show the route table of a running server via its admin API
//   - version: Show build information
//
// Every flag can also be set through the environment with the MOCKROUTE_
// prefix, dashes replaced by underscores (MOCKROUTE_ADMIN_PORT=8081).
package cli
