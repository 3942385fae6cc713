package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockroute/pkg/admin/client"
)

// Default URLs for commands that talk to a running server.
const (
	DefaultServerURL = "http://localhost:8080"
	DefaultAdminURL  = "http://localhost:8081"
)

func newRoutesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Inspect and update the routes of a running server",
	}
	cmd.AddCommand(newRoutesPushCommand(), newRoutesListCommand())
	return cmd
}

func newRoutesPushCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push FILE",
		Short: "Upsert routes from a file into a running server",
		Long: `Send a route array to PUT /routes on a running server.

FILE holds a JSON or YAML array of route objects. Missing fields take
defaults (method GET, response "OK", code 200). Either every route is
applied or, if any is invalid, none is. Use "-" to read stdin.`,
		Example: `  mockroute routes push update.json
  mockroute routes push --url http://localhost:9000 update.yml
  cat update.json | mockroute routes push --format json -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}

			data, err := readPayload(cmd, args[0])
			if err != nil {
				return err
			}
			contentType, err := payloadContentType(args[0], v.GetString("format"))
			if err != nil {
				return err
			}

			c := client.New(v.GetString("url"), client.WithTimeout(v.GetDuration("timeout")))
			if err := c.PushRoutes(cmd.Context(), data, contentType); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "routes applied to %s\n", c.BaseURL())
			return nil
		},
	}
	f := cmd.Flags()
	f.String("url", DefaultServerURL, "Base URL of the mock server")
	f.String("format", "", "Payload format (json or yaml); detected from the file extension when empty")
	f.Duration("timeout", 10*time.Second, "Request timeout")
	return cmd
}

func readPayload(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func payloadContentType(name, format string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".yml", ".yaml":
			format = "yaml"
		default:
			format = "json"
		}
	}
	switch strings.ToLower(format) {
	case "json":
		return "application/json", nil
	case "yaml", "yml":
		return "application/yaml", nil
	default:
		return "", fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

func newRoutesListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the route table of a running server",
		Long: `Fetch the route table from the admin API of a running server.
The server must have been started with --admin-port.`,
		Example: `  mockroute routes list
  mockroute routes list --admin-url http://localhost:9001 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}

			c := client.New(v.GetString("admin-url"), client.WithTimeout(v.GetDuration("timeout")))
			routes, err := c.ListRoutes(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if v.GetBool("json") {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(routes)
			}
			if len(routes) == 0 {
				fmt.Fprintln(out, "no routes")
				return nil
			}
			renderRoutes(out, routes)
			return nil
		},
	}
	f := cmd.Flags()
	f.String("admin-url", DefaultAdminURL, "Base URL of the admin API")
	f.Bool("json", false, "Print routes as JSON")
	f.Duration("timeout", 10*time.Second, "Request timeout")
	return cmd
}
