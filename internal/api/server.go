// Package api exposes the registry over JSON-RPC and REST. The JSON-RPC
// surface is served identically over stdio and HTTP POST /rpc; the REST
// routes are a thin convenience layer over the same service.
package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	stderrors "errors"

	"github.com/google/uuid"

	"github.com/randalmurphal/agentry/internal/errors"
	"github.com/randalmurphal/agentry/internal/index"
	"github.com/randalmurphal/agentry/internal/registry"
)

// Version is the advertised server version.
const Version = "0.1.0-dev"

// maxRPCBody caps a single JSON-RPC HTTP request body.
const maxRPCBody = 1 << 20

// Server serves the HTTP transport.
type Server struct {
	addr       string
	instanceID string
	mux        *http.ServeMux
	service    *registry.Service
	rpc        *RPCHandler
	logger     *slog.Logger
}

// ServerConfig configures a Server.
type ServerConfig struct {
	Addr   string
	Logger *slog.Logger
}

// NewServer creates an HTTP server over the given registry service.
func NewServer(svc *registry.Service, cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:       cfg.Addr,
		instanceID: uuid.NewString(),
		mux:        http.NewServeMux(),
		service:    svc,
		rpc:        NewRPCHandler(svc, logger),
		logger:     logger,
	}
	s.registerRoutes()
	return s
}

// registerRoutes sets up all API routes.
func (s *Server) registerRoutes() {
	// CORS middleware wrapper
	cors := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			h(w, r)
		}
	}

	// JSON-RPC transport
	s.mux.HandleFunc("POST /rpc", cors(s.handleRPC))

	// REST convenience routes
	s.mux.HandleFunc("GET /api/health", cors(s.handleHealth))
	s.mux.HandleFunc("GET /api/definitions", cors(s.handleListDefinitions))
	s.mux.HandleFunc("GET /api/definitions/{name}", cors(s.handleGetDefinition))
	s.mux.HandleFunc("GET /api/cache/stats", cors(s.handleCacheStats))
	s.mux.HandleFunc("POST /api/cache/clear", cors(s.handleCacheClear))
}

// Handler returns the server's HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// StartContext starts the API server with context for graceful shutdown.
func (s *Server) StartContext(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting API server", "addr", s.addr, "instance", s.instanceID)
	err := server.ListenAndServe()
	if stderrors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// handleRPC serves the JSON-RPC transport over HTTP.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRPCBody))
	if err != nil {
		s.jsonError(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	resp := s.rpc.Handle(r.Context(), body)
	w.Header().Set("Content-Type", "application/json")
	if resp == nil {
		// Notification: acknowledged with no body.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_, _ = w.Write(resp)
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h, err := s.service.Health(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, h)
}

// handleListDefinitions serves the paginated discovery listing.
// Query params: offset, limit.
func (s *Server) handleListDefinitions(w http.ResponseWriter, r *http.Request) {
	req := registry.ListRequest{}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := parseCursor(v)
		if err != nil {
			s.handleError(w, err)
			return
		}
		req.Offset = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := parseCursor(v)
		if err != nil {
			s.handleError(w, err)
			return
		}
		req.Limit = n
	}

	// Capability or text filters route to the query engine instead.
	q := r.URL.Query()
	if q.Get("capability") != "" || q.Get("contains") != "" {
		records, err := s.service.Query(r.Context(), index.QueryParams{
			Capability: q.Get("capability"),
			Contains:   q.Get("contains"),
			Limit:      req.Limit,
		})
		if err != nil {
			s.handleError(w, err)
			return
		}
		s.jsonResponse(w, map[string]any{"records": records, "count": len(records)})
		return
	}

	resp, err := s.service.ListDefinitions(r.Context(), req)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, resp)
}

// handleGetDefinition serves one full definition by name.
func (s *Server) handleGetDefinition(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	// ?metadata=true returns just the index record.
	if r.URL.Query().Get("metadata") == "true" {
		meta, err := s.service.GetMetadata(r.Context(), name)
		if err != nil {
			s.handleError(w, err)
			return
		}
		s.jsonResponse(w, meta)
		return
	}

	resp, err := s.service.ReadDefinition(r.Context(), "agent://"+name)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.jsonResponse(w, resp)
}

// handleCacheStats returns the loader cache counters.
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, s.service.CacheStats())
}

// handleCacheClear flushes the loader cache.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.service.ClearCache()
	s.jsonResponse(w, map[string]string{"status": "cleared"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// jsonError writes a JSON error response.
func (s *Server) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// handleError writes a structured JSON error response for registry errors.
func (s *Server) handleError(w http.ResponseWriter, err error) {
	var regErr *errors.RegistryError
	if stderrors.As(err, &regErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(regErr.HTTPStatus())
		_ = json.NewEncoder(w).Encode(map[string]any{"error": regErr})
		return
	}
	s.logger.Error("unhandled error", "error", err)
	s.jsonError(w, "internal error", http.StatusInternalServerError)
}
