// Package index maintains the queryable metadata index over the
// definition store. The index is built once at startup and answers all
// discovery listings; definition bodies stay on disk until loaded.
package index

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/randalmurphal/agentry/internal/db"
	"github.com/randalmurphal/agentry/internal/definition"
	"github.com/randalmurphal/agentry/internal/errors"
	"github.com/randalmurphal/agentry/internal/store"
)

const (
	// DefaultLimit applies when a listing request leaves limit unset.
	DefaultLimit = 20
	// DefaultMaxLimit caps a single listing page.
	DefaultMaxLimit = 100
)

// Index answers discovery queries against indexed definition metadata.
type Index struct {
	db           *db.DB
	store        store.Store
	logger       *slog.Logger
	defaultLimit int
	maxLimit     int

	skipped []store.Skip
}

// Options configures an Index.
type Options struct {
	// DefaultLimit is the page size when a request leaves limit unset.
	// Zero means DefaultLimit.
	DefaultLimit int
	// MaxLimit caps the page size for List. Zero means DefaultMaxLimit.
	MaxLimit int
	// Logger receives scan summaries. Nil means slog.Default().
	Logger *slog.Logger
}

// New creates an Index over the given database and store.
func New(database *db.DB, st store.Store, opts Options) *Index {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = DefaultMaxLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Index{
		db:           database,
		store:        st,
		logger:       opts.Logger,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
	}
}

// Build scans the store and replaces the index contents. Malformed
// definitions were already skipped by the scan; an unreadable store or a
// failed index write is fatal.
func (ix *Index) Build(ctx context.Context) error {
	result, err := ix.store.Scan(ctx)
	if err != nil {
		return errors.ErrIndexBuild(err)
	}

	records := make([]*db.DefinitionRecord, 0, len(result.Definitions))
	for _, def := range result.Definitions {
		meta := def.Metadata()
		records = append(records, &db.DefinitionRecord{
			Name:         meta.Name,
			Description:  meta.Description,
			Version:      meta.Version,
			Capabilities: meta.Capabilities,
			ContentType:  meta.ContentType,
			Path:         meta.Path,
			Size:         meta.Size,
		})
	}

	if err := ix.db.ReplaceDefinitions(ctx, records); err != nil {
		return errors.ErrIndexBuild(err)
	}

	ix.skipped = result.Skipped
	ix.logger.Info("index built",
		"definitions", len(records),
		"skipped", len(result.Skipped))
	return nil
}

// Page is one window of a discovery listing.
type Page struct {
	Records    []definition.Metadata
	Total      int
	NextCursor string // empty when no records remain past this page
}

// List returns an alphabetical page of definition metadata.
// limit <= 0 selects the default page size; limits above the configured
// max are clamped. An offset past the end yields an empty page.
func (ix *Index) List(ctx context.Context, offset, limit int) (*Page, error) {
	if limit <= 0 {
		limit = ix.defaultLimit
	}
	if limit > ix.maxLimit {
		limit = ix.maxLimit
	}

	records, total, err := ix.db.ListDefinitions(ctx, offset, limit)
	if err != nil {
		return nil, errors.ErrIndexQuery(err)
	}

	page := &Page{
		Records: toMetadata(records),
		Total:   total,
	}
	if offset+len(records) < total {
		page.NextCursor = strconv.Itoa(offset + len(records))
	}
	return page, nil
}

// Get looks up one record by exact name. Returns nil when unknown.
func (ix *Index) Get(ctx context.Context, name string) (*definition.Metadata, error) {
	rec, err := ix.db.GetDefinition(ctx, name)
	if err != nil {
		return nil, errors.ErrIndexQuery(err)
	}
	if rec == nil {
		return nil, nil
	}
	meta := recordToMetadata(rec)
	return &meta, nil
}

// QueryParams filters a discovery query.
type QueryParams struct {
	Capability string
	Contains   string
	Limit      int
}

// Query returns metadata matching the filter, alphabetical, truncated to
// the (clamped) limit.
func (ix *Index) Query(ctx context.Context, params QueryParams) ([]definition.Metadata, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = ix.defaultLimit
	}
	if limit > ix.maxLimit {
		limit = ix.maxLimit
	}

	records, err := ix.db.SearchDefinitions(ctx, db.Filter{
		Capability: params.Capability,
		Contains:   params.Contains,
	})
	if err != nil {
		return nil, errors.ErrIndexQuery(err)
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return toMetadata(records), nil
}

// Count returns the number of indexed definitions.
func (ix *Index) Count(ctx context.Context) (int, error) {
	n, err := ix.db.CountDefinitions(ctx)
	if err != nil {
		return 0, errors.ErrIndexQuery(err)
	}
	return n, nil
}

// Skipped reports the files the last Build rejected.
func (ix *Index) Skipped() []store.Skip {
	return ix.skipped
}

func toMetadata(records []*db.DefinitionRecord) []definition.Metadata {
	out := make([]definition.Metadata, len(records))
	for i, r := range records {
		out[i] = recordToMetadata(r)
	}
	return out
}

func recordToMetadata(r *db.DefinitionRecord) definition.Metadata {
	return definition.Metadata{
		Name:         r.Name,
		Description:  r.Description,
		Version:      r.Version,
		Capabilities: r.Capabilities,
		ContentType:  r.ContentType,
		Path:         r.Path,
		Size:         r.Size,
	}
}
