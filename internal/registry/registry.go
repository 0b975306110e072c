// Package registry is the discovery query engine: it validates incoming
// requests, fans out to the metadata index and definition loader, and
// shapes the response envelopes the protocol front-ends serialize.
package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/randalmurphal/agentry/internal/definition"
	"github.com/randalmurphal/agentry/internal/errors"
	"github.com/randalmurphal/agentry/internal/index"
	"github.com/randalmurphal/agentry/internal/loader"
)

// Service answers discovery and read requests.
type Service struct {
	index  *index.Index
	loader *loader.Loader
}

// NewService creates a Service over the given index and loader.
func NewService(ix *index.Index, ld *loader.Loader) *Service {
	return &Service{index: ix, loader: ld}
}

// ListRequest is a paginated discovery request.
type ListRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ListResponse is one page of definition metadata.
type ListResponse struct {
	Records    []definition.Metadata `json:"records"`
	Total      int                   `json:"total"`
	Count      int                   `json:"count"`
	NextCursor string                `json:"nextCursor,omitempty"`
}

// ListDefinitions returns a page of the alphabetical definition listing.
// Negative offset or limit fails validation before touching the index.
func (s *Service) ListDefinitions(ctx context.Context, req ListRequest) (*ListResponse, error) {
	if req.Offset < 0 {
		return nil, errors.ErrInvalidArgument(fmt.Sprintf("offset must not be negative, got %d", req.Offset))
	}
	if req.Limit < 0 {
		return nil, errors.ErrInvalidArgument(fmt.Sprintf("limit must not be negative, got %d", req.Limit))
	}

	page, err := s.index.List(ctx, req.Offset, req.Limit)
	if err != nil {
		return nil, err
	}

	records := page.Records
	if records == nil {
		records = []definition.Metadata{}
	}
	return &ListResponse{
		Records:    records,
		Total:      page.Total,
		Count:      len(records),
		NextCursor: page.NextCursor,
	}, nil
}

// ReadResponse carries one full definition.
type ReadResponse struct {
	Identifier  string `json:"identifier"`
	ContentType string `json:"contentType"`
	Text        string `json:"text"`
}

// ReadDefinition resolves an agent:// identifier to its serialized
// definition.
func (s *Service) ReadDefinition(ctx context.Context, identifier string) (*ReadResponse, error) {
	name, err := ParseIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	def, err := s.loader.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	text, err := def.Serialize()
	if err != nil {
		return nil, errors.ErrLoadFailed(name, err)
	}

	return &ReadResponse{
		Identifier:  identifier,
		ContentType: definition.ContentTypeJSON,
		Text:        text,
	}, nil
}

// GetMetadata returns the index record for one name.
func (s *Service) GetMetadata(ctx context.Context, name string) (*definition.Metadata, error) {
	if name == "" {
		return nil, errors.ErrInvalidArgument("name must not be empty")
	}
	meta, err := s.index.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, errors.ErrNotFound(name)
	}
	return meta, nil
}

// Query runs a filtered discovery query against the index.
func (s *Service) Query(ctx context.Context, params index.QueryParams) ([]definition.Metadata, error) {
	if params.Limit < 0 {
		return nil, errors.ErrInvalidArgument(fmt.Sprintf("limit must not be negative, got %d", params.Limit))
	}
	records, err := s.index.Query(ctx, params)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []definition.Metadata{}
	}
	return records, nil
}

// Health summarizes the registry state for liveness checks.
type Health struct {
	Status      string       `json:"status"`
	Definitions int          `json:"definitions"`
	Cache       loader.Stats `json:"cache"`
}

// Health reports the indexed definition count and cache counters.
func (s *Service) Health(ctx context.Context) (*Health, error) {
	n, err := s.index.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Health{
		Status:      "ok",
		Definitions: n,
		Cache:       s.loader.Stats(),
	}, nil
}

// CacheStats returns the loader cache counters.
func (s *Service) CacheStats() loader.Stats {
	return s.loader.Stats()
}

// ClearCache flushes the loader cache.
func (s *Service) ClearCache() {
	s.loader.Clear()
}

// ParseIdentifier extracts the definition name from an agent://<name>
// identifier. Anything else is an InvalidArgument.
func ParseIdentifier(identifier string) (string, error) {
	prefix := definition.URIScheme + "://"
	if !strings.HasPrefix(identifier, prefix) {
		return "", errors.ErrInvalidArgument(
			fmt.Sprintf("identifier %q must use the %s scheme", identifier, prefix))
	}
	name := strings.TrimPrefix(identifier, prefix)
	if name == "" || strings.ContainsAny(name, "/?#") {
		return "", errors.ErrInvalidArgument(
			fmt.Sprintf("identifier %q does not name a definition", identifier))
	}
	return name, nil
}
