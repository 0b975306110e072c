package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	stderrors "errors"

	"github.com/tidwall/gjson"

	"github.com/randalmurphal/agentry/internal/errors"
	"github.com/randalmurphal/agentry/internal/index"
	"github.com/randalmurphal/agentry/internal/registry"
)

// JSON-RPC 2.0 protocol error codes.
const (
	rpcParseError     = -32700
	rpcInvalidRequest = -32600
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
	rpcInternalError  = -32603
)

// protocolVersion identifies the wire protocol to initialize callers.
const protocolVersion = "2024-11-05"

// rpcRequest is an incoming JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// rpcResponse is an outgoing JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// RPCHandler dispatches JSON-RPC 2.0 requests to the registry service.
// Shared by the stdio and HTTP transports.
type RPCHandler struct {
	service *registry.Service
	logger  *slog.Logger
}

// NewRPCHandler creates an RPCHandler.
func NewRPCHandler(svc *registry.Service, logger *slog.Logger) *RPCHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RPCHandler{service: svc, logger: logger}
}

// Handle processes one raw JSON-RPC message and returns the encoded
// response. Notifications (no id) yield nil.
func (h *RPCHandler) Handle(ctx context.Context, raw []byte) []byte {
	if !gjson.ValidBytes(raw) {
		return mustEncode(errorResponse(nil, rpcParseError, "parse error", nil))
	}

	// Peek before full decode so malformed envelopes still get an id
	// echoed back when one is present.
	idField := gjson.GetBytes(raw, "id")
	var id json.RawMessage
	if idField.Exists() {
		id = json.RawMessage(idField.Raw)
	}

	var req rpcRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return mustEncode(errorResponse(id, rpcInvalidRequest, "invalid request", nil))
	}
	if req.Method == "" {
		return mustEncode(errorResponse(id, rpcInvalidRequest, "invalid request: missing method", nil))
	}

	start := time.Now()
	result, rerr := h.dispatch(ctx, &req)
	h.logger.Debug("rpc request",
		"method", req.Method,
		"duration", time.Since(start),
		"error", rerr != nil)

	// Notifications get no response, success or failure.
	if req.ID == nil {
		return nil
	}

	if rerr != nil {
		return mustEncode(h.errorFor(req.ID, rerr))
	}
	return mustEncode(&rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
}

// dispatch routes a request to the matching service call.
func (h *RPCHandler) dispatch(ctx context.Context, req *rpcRequest) (any, error) {
	switch req.Method {
	case "initialize":
		return h.initialize(), nil

	case "resources/list":
		return h.resourcesList(ctx, req.Params)

	case "resources/read":
		return h.resourcesRead(ctx, req.Params)

	case "agents/list":
		var params registry.ListRequest
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, err
		}
		return h.service.ListDefinitions(ctx, params)

	case "agents/get":
		var params struct {
			Name string `json:"name"`
		}
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, err
		}
		return h.service.GetMetadata(ctx, params.Name)

	case "agents/get_definition":
		var params struct {
			Name string `json:"name"`
		}
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, err
		}
		return h.service.ReadDefinition(ctx, "agent://"+params.Name)

	case "agents/query", "agents/discover", "agents/discover_by_capability":
		return h.agentsQuery(ctx, req.Params)

	case "health":
		return h.service.Health(ctx)

	case "cache/stats":
		return h.service.CacheStats(), nil

	case "cache/clear":
		h.service.ClearCache()
		return map[string]string{"status": "cleared"}, nil

	default:
		return nil, &methodNotFound{method: req.Method}
	}
}

func (h *RPCHandler) initialize() any {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"serverInfo": map[string]string{
			"name":    "agentry",
			"version": Version,
		},
		"capabilities": map[string]any{
			"resources": map[string]any{},
		},
	}
}

// resourcesList answers the contractual discovery listing. The cursor is
// an opaque offset-as-string.
func (h *RPCHandler) resourcesList(ctx context.Context, raw json.RawMessage) (any, error) {
	var params struct {
		Cursor string `json:"cursor"`
		Limit  int    `json:"limit"`
	}
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}

	offset := 0
	if params.Cursor != "" {
		n, err := parseCursor(params.Cursor)
		if err != nil {
			return nil, err
		}
		offset = n
	}

	resp, err := h.service.ListDefinitions(ctx, registry.ListRequest{
		Offset: offset,
		Limit:  params.Limit,
	})
	if err != nil {
		return nil, err
	}

	resources := make([]map[string]any, len(resp.Records))
	for i, rec := range resp.Records {
		resources[i] = map[string]any{
			"uri":         rec.URI(),
			"name":        rec.Name,
			"description": rec.Description,
			"mimeType":    rec.ContentType,
		}
	}

	result := map[string]any{
		"resources": resources,
		"total":     resp.Total,
	}
	if resp.NextCursor != "" {
		result["nextCursor"] = resp.NextCursor
	}
	return result, nil
}

// resourcesRead answers the contractual definition read.
func (h *RPCHandler) resourcesRead(ctx context.Context, raw json.RawMessage) (any, error) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	if params.URI == "" {
		return nil, errors.ErrInvalidArgument("uri parameter is required")
	}

	resp, err := h.service.ReadDefinition(ctx, params.URI)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"contents": []map[string]any{{
			"uri":      resp.Identifier,
			"mimeType": resp.ContentType,
			"text":     resp.Text,
		}},
	}, nil
}

// agentsQuery answers the discovery query methods. "query" is accepted
// as an alias for "contains" so discovery clients can pass free text.
func (h *RPCHandler) agentsQuery(ctx context.Context, raw json.RawMessage) (any, error) {
	var params struct {
		Capability string `json:"capability"`
		Contains   string `json:"contains"`
		Query      string `json:"query"`
		Limit      int    `json:"limit"`
	}
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	if params.Contains == "" {
		params.Contains = params.Query
	}

	records, err := h.service.Query(ctx, index.QueryParams{
		Capability: params.Capability,
		Contains:   params.Contains,
		Limit:      params.Limit,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"records": records, "count": len(records)}, nil
}

// errorFor maps a dispatch error onto the JSON-RPC error envelope.
func (h *RPCHandler) errorFor(id json.RawMessage, err error) *rpcResponse {
	var notFound *methodNotFound
	if stderrors.As(err, &notFound) {
		return errorResponse(id, rpcMethodNotFound, "method not found: "+notFound.method, nil)
	}

	var regErr *errors.RegistryError
	if stderrors.As(err, &regErr) {
		return errorResponse(id, regErr.RPCCode(), regErr.Error(), regErr)
	}

	h.logger.Error("rpc internal error", "error", err)
	return errorResponse(id, rpcInternalError, "internal error", nil)
}

type methodNotFound struct {
	method string
}

func (e *methodNotFound) Error() string {
	return "method not found: " + e.method
}

func decodeParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.ErrInvalidArgument("malformed params: " + err.Error())
	}
	return nil
}

func parseCursor(cursor string) (int, error) {
	n, err := strconv.Atoi(cursor)
	if err != nil || n < 0 {
		return 0, errors.ErrInvalidArgument("cursor " + strconv.Quote(cursor) + " is not a valid offset")
	}
	return n, nil
}

func errorResponse(id json.RawMessage, code int, message string, data any) *rpcResponse {
	if id == nil {
		id = json.RawMessage("null")
	}
	return &rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: code, Message: message, Data: data},
	}
}

func mustEncode(resp *rpcResponse) []byte {
	out, err := json.Marshal(resp)
	if err != nil {
		// The envelope only contains marshalable types; this cannot
		// happen for well-formed responses.
		out, _ = json.Marshal(errorResponse(resp.ID, rpcInternalError, "encoding failure", nil))
	}
	return out
}
