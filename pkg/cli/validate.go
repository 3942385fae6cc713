package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/getmockd/mockroute/pkg/config"
	"github.com/getmockd/mockroute/pkg/route"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file without starting the server",
		Long: `Load and validate a route config file.

This command checks:
  - YAML or JSON syntax
  - the port and error_percentage values
  - every route: method, path and status code

On success the route table is printed. Any problem exits non-zero.`,
		Example: `  mockroute validate
  mockroute validate -c ./routes.json
  MOCKROUTE_CONFIG=routes.yml mockroute validate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}
			path := v.GetString("config")

			cfg, err := config.LoadFromFile(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: OK\n", path)
			fmt.Fprintf(out, "  listen:           %s\n", cfg.Address())
			fmt.Fprintf(out, "  error_percentage: %d\n", cfg.ErrorPercentage)
			fmt.Fprintf(out, "  routes:           %d\n", len(cfg.Routes))
			if len(cfg.Routes) > 0 {
				fmt.Fprintln(out)
				renderRoutes(out, cfg.RouteList())
			}
			return nil
		},
	}
	addConfigFlag(cmd)
	return cmd
}

// renderRoutes prints routes as a table.
func renderRoutes(w io.Writer, routes []route.Route) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Method", "Path", "Code", "Error", "Response"})
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for _, r := range routes {
		code := strconv.Itoa(r.Code)
		resp := truncate(r.Response, 40)
		if r.Error {
			code, resp = "-", "(injected)"
		}
		table.Append([]string{r.Method, r.Path, code, strconv.FormatBool(r.Error), resp})
	}
	table.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
