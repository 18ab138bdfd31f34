package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/rollcheck/internal/buildinfo"
	"github.com/cleared-dev/rollcheck/internal/extract"
	"github.com/cleared-dev/rollcheck/internal/logging"
	"github.com/cleared-dev/rollcheck/internal/pipeline"
	"github.com/cleared-dev/rollcheck/internal/server"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reconciliation HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			th, err := cfg.Threshold()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ext, err := extract.New(ctx, cfg)
			if err != nil {
				return err
			}
			p := pipeline.New(ext, th)
			p.Timeout = cfg.Extraction.Timeout

			logging.Default().Info().
				Str("version", buildinfo.Version).
				Str("backend", ext.Name()).
				Str("addr", cfg.Server.Addr).
				Msg("starting server")

			srv := server.New(server.Options{
				Pipeline:           p,
				RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
			})
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}
