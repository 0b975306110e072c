package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/agentry/internal/api"
)

// newServeCmd creates the serve command (HTTP transport).
func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the registry over HTTP",
		Long: `Serve the registry over HTTP: JSON-RPC on POST /rpc plus REST
routes under /api. The index is built once at startup from the agents
directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := startRegistry(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			if host != "" {
				rt.cfg.Server.Host = host
			}
			if port != 0 {
				rt.cfg.Server.Port = port
			}

			srv := api.NewServer(rt.service, api.ServerConfig{
				Addr:   rt.cfg.Server.Addr(),
				Logger: rt.logger,
			})
			return srv.StartContext(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}
