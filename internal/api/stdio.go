package api

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// maxLineSize caps one newline-delimited JSON-RPC message.
const maxLineSize = 4 << 20

// StdioServer serves newline-delimited JSON-RPC over a reader/writer
// pair, normally stdin/stdout. Logs must go to stderr in this mode so
// they never interleave with protocol frames.
type StdioServer struct {
	rpc    *RPCHandler
	in     io.Reader
	out    io.Writer
	logger *slog.Logger
}

// NewStdioServer creates a stdio transport over the given streams.
func NewStdioServer(rpc *RPCHandler, in io.Reader, out io.Writer, logger *slog.Logger) *StdioServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StdioServer{rpc: rpc, in: in, out: out, logger: logger}
}

// Run reads messages until EOF or context cancellation. One request per
// line, one response per line.
func (s *StdioServer) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	s.logger.Info("stdio transport ready")

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		resp := s.rpc.Handle(ctx, []byte(line))
		if resp == nil {
			continue
		}
		if _, err := fmt.Fprintf(s.out, "%s\n", resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	s.logger.Info("stdio transport closed")
	return nil
}
