package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pedigree/pkg/observability/prom"
	"github.com/matzehuels/pedigree/pkg/pipeline"
	"github.com/matzehuels/pedigree/pkg/server"
	"github.com/matzehuels/pedigree/pkg/store"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pedigree over an HTTP JSON API",
		Long: `Serve one pedigree over an HTTP JSON API.

The document named by --doc (or [server] document in the config file) is
loaded from the configured store at startup and saved after every change.
Without a document the pedigree lives in memory only.

Routes:
  GET  /pedigree     current document
  PUT  /pedigree     replace the document
  POST /operations   apply one operation or an array of operations
  GET  /layout       chart coordinates
  GET  /risks        inferred risks
  GET  /report       plain-text risk report
  GET  /render       chart as SVG or DOT (?format=dot)
  GET  /documents    documents in the store
  GET  /healthz      liveness
  GET  /metrics      Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if c.docID != "" {
				cfg.Server.Document = c.docID
			}

			opts := server.Options{Document: cfg.Server.Document, Logger: c.Logger}
			if !noMetrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				metrics := prom.New(reg)
				metrics.Register()
				opts.Metrics = metrics.Handler()
			}

			runner, err := c.newRunner(ctx, cfg)
			if err != nil {
				return err
			}
			defer runner.Close()
			session := pipeline.NewSession(runner, pipeline.Options{Layout: cfg.Layout, Logger: c.Logger})

			empty, err := cfg.NewPedigree()
			if err != nil {
				return err
			}
			if _, err := session.Load(ctx, empty); err != nil {
				return err
			}

			if opts.Document != "" {
				s, err := store.Open(ctx, cfg.Store)
				if err != nil {
					return err
				}
				defer s.Close()
				opts.Store = s
			}

			srv := server.New(session, opts)
			if err := srv.Restore(ctx); err != nil {
				return err
			}
			c.printInfo("Serving on %s", StyleHighlight.Render(cfg.Server.Addr))
			return srv.ListenAndServe(ctx, cfg.Server)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")

	return cmd
}
