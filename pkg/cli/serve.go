package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/getmockd/mockroute/internal/watch"
	"github.com/getmockd/mockroute/pkg/admin"
	"github.com/getmockd/mockroute/pkg/chaos"
	"github.com/getmockd/mockroute/pkg/config"
	"github.com/getmockd/mockroute/pkg/engine"
	"github.com/getmockd/mockroute/pkg/logging"
	"github.com/getmockd/mockroute/pkg/requestlog"
)

// serveOptions is the resolved serve configuration.
type serveOptions struct {
	configPath  string
	port        int
	portSet     bool
	hostname    string
	adminPort   int
	adminHost   string
	watch       bool
	seed        uint64
	seedSet     bool
	historySize int
	logLevel    string
	logFormat   string
}

func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", config.DefaultFile, "Route config file (YAML or JSON)")
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the mock server",
		Long: `Load the route table from the config file and serve it.

PUT or POST /routes on the mock listener upserts routes at runtime. With
--admin-port the admin API (health, stats, metrics, request history,
route inspection) listens on its own port.`,
		Example: `  mockroute serve -c routes.yml
  mockroute --port 9000 --admin-port 9001
  MOCKROUTE_LOG_LEVEL=debug mockroute serve --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), serveOptionsFrom(v), cmd.ErrOrStderr())
		},
	}

	addConfigFlag(cmd)
	f := cmd.Flags()
	f.IntP("port", "p", config.DefaultPort, "Listen port, overrides the config file")
	f.String("hostname", "", "Listen interface, overrides the config file")
	f.Int("admin-port", 0, "Admin API port (0 disables the admin API)")
	f.String("admin-host", "127.0.0.1", "Admin API interface")
	f.Bool("watch", false, "Reload routes when the config file changes")
	f.Uint64("seed", 0, "Seed the error injector for reproducible draws")
	f.Int("history-size", requestlog.DefaultCapacity, "Number of requests kept for the admin API")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func serveOptionsFrom(v *viper.Viper) serveOptions {
	return serveOptions{
		configPath:  v.GetString("config"),
		port:        v.GetInt("port"),
		portSet:     v.IsSet("port"),
		hostname:    v.GetString("hostname"),
		adminPort:   v.GetInt("admin-port"),
		adminHost:   v.GetString("admin-host"),
		watch:       v.GetBool("watch"),
		seed:        v.GetUint64("seed"),
		seedSet:     v.IsSet("seed"),
		historySize: v.GetInt("history-size"),
		logLevel:    v.GetString("log-level"),
		logFormat:   v.GetString("log-format"),
	}
}

func runServe(ctx context.Context, opts serveOptions, logOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(opts.logLevel),
		Format: logging.ParseFormat(opts.logFormat),
		Output: logOut,
	})

	cfg, err := config.LoadFromFile(opts.configPath)
	if err != nil {
		log.Error("failed to load config", "path", opts.configPath, "error", err)
		return err
	}
	if opts.portSet {
		cfg.Port = opts.port
	}
	if opts.hostname != "" {
		cfg.Hostname = opts.hostname
	}
	log.Info("config loaded", "path", opts.configPath, "routes", len(cfg.Routes))

	srv := engine.NewServer(cfg, serverOptions(opts, log)...)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })

	if opts.adminPort > 0 {
		api := admin.NewAPI(opts.adminPort, srv,
			admin.WithLogger(logging.Component(log, "admin")),
			admin.WithHostname(opts.adminHost),
			admin.WithVersion(Version))
		g.Go(func() error { return api.Run(gctx) })
	}

	if opts.watch {
		w := watch.New(opts.configPath, srv.Mutator(), watch.WithLogger(logging.Component(log, "watch")))
		g.Go(func() error { return w.Run(gctx) })
	}

	err = g.Wait()
	if err != nil {
		log.Error("server stopped", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

func serverOptions(opts serveOptions, log *slog.Logger) []engine.ServerOption {
	out := []engine.ServerOption{
		engine.WithLogger(log),
		engine.WithRequestLog(requestlog.NewMemoryStore(opts.historySize)),
	}
	if opts.seedSet {
		out = append(out, engine.WithInjector(chaos.NewInjector(chaos.WithSource(chaos.NewSeededSource(opts.seed)))))
	}
	return out
}
