package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docsmith-dev/docsmith/internal/config"
	"github.com/docsmith-dev/docsmith/internal/serve"
)

func serveCmd() *cobra.Command {
	var (
		port        int
		hostname    string
		output      string
		language    string
		openBrowser bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview the site with automatic rebuild and reload",
		Long: `Serve the built site over HTTP, watch the sources, and reload
connected browsers whenever a rebuild succeeds.

A failed rebuild keeps the last good output served; fix the source and
save again to recover.

Examples:
  docsmith serve
  docsmith serve --port=8080
  docsmith serve --hostname=0.0.0.0 --open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromWorkingDir()
			if err != nil {
				return err
			}

			if port > 0 {
				cfg.Serve.Port = port
			}
			if hostname != "" {
				cfg.Serve.Host = hostname
			}
			if output != "" {
				cfg.Output = output
			}
			if language != "" {
				cfg.Language = language
			}
			if metricsAddr != "" {
				cfg.Serve.MetricsAddr = metricsAddr
			}
			if openBrowser {
				cfg.Serve.OpenBrowser = true
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			supervisor := serve.NewSupervisor(serve.Options{
				Config: cfg,
				OnReady: func(url string) {
					info("Serving on %s", url)
					if cfg.Serve.OpenBrowser {
						openURL(url)
					}
				},
			})

			return supervisor.Run(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from docsmith.json)")
	cmd.Flags().StringVarP(&hostname, "hostname", "n", "", "Hostname to listen on (default from docsmith.json)")
	cmd.Flags().StringVarP(&output, "dest-dir", "d", "", "Output directory for the site")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Language to serve the site in")
	cmd.Flags().BoolVarP(&openBrowser, "open", "o", false, "Open the site in a browser")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address")

	return cmd
}
