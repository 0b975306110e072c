package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/agentry/internal/api"
)

// newStdioCmd creates the stdio command (newline-delimited JSON-RPC).
func newStdioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Speak JSON-RPC on stdin/stdout",
		Long: `Run the registry as a stdio JSON-RPC server: one request per line
on stdin, one response per line on stdout. All logging goes to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := startRegistry(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			rpc := api.NewRPCHandler(rt.service, rt.logger)
			srv := api.NewStdioServer(rpc, os.Stdin, os.Stdout, rt.logger)
			return srv.Run(ctx)
		},
	}
}
