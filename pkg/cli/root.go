package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "MOCKROUTE"

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree writing to stdout and stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "mockroute",
		Short: "mockroute is an HTTP test-double server",
		Long: `mockroute serves canned responses from a route table loaded from a YAML or
JSON file, injects random error statuses on request, and accepts route updates
at runtime through PUT or POST /routes.

Running mockroute without a command is the same as 'mockroute serve'.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("mockroute {{.Version}}\n")
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(
		newServeCommand(),
		newValidateCommand(),
		newRoutesCommand(),
		newVersionCommand(),
	)
	return root
}

// Main runs the CLI with os.Args and returns the process exit code.
func Main() int {
	return Run(os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes args and returns the exit code. Arguments that do not start
// with a known command are handed to serve.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(defaultToServe(root, args))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func defaultToServe(root *cobra.Command, args []string) []string {
	if len(args) == 0 {
		return []string{"serve"}
	}
	first := args[0]
	switch first {
	case "-h", "--help", "-v", "--version", "help", "completion", "__complete":
		return args
	}
	if !strings.HasPrefix(first, "-") {
		return args
	}
	if cmd, _, err := root.Find(args); err == nil && cmd != root {
		return args
	}
	return append([]string{"serve"}, args...)
}

// newViper binds the flags of cmd and MOCKROUTE_* variables. Flags win
// over the environment, which wins over flag defaults.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	return v, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "mockroute %s (commit %s, built %s)\n", Version, Commit, BuildDate)
			return err
		},
	}
}
