// Package store provides read-only access to agent definitions on disk.
//
// The store contract is deliberately small: enumerate definition units
// once, and read a single unit by its file pointer. The physical format
// (markdown files with YAML frontmatter) is an implementation detail
// behind this contract.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/randalmurphal/agentry/internal/definition"
)

// DefaultReadTimeout bounds a single store read.
const DefaultReadTimeout = 5 * time.Second

// Skip reports a definition unit that was rejected during a scan.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ScanResult holds the outcome of a full store scan.
type ScanResult struct {
	Definitions []*definition.Definition
	Skipped     []Skip
}

// Store enumerates and reads agent definitions.
type Store interface {
	// Scan enumerates all definition units. Individual malformed units
	// are reported in the result, not returned as errors; only an
	// inaccessible store fails the scan.
	Scan(ctx context.Context) (*ScanResult, error)

	// Read loads one definition by its file pointer.
	Read(ctx context.Context, path string) (*definition.Definition, error)
}

// FSStore reads agent definitions from a directory tree.
type FSStore struct {
	root           string
	include        []string
	exclude        []string
	readTimeout    time.Duration
	validateSchema bool
	logger         *slog.Logger
}

// Options configures an FSStore.
type Options struct {
	// Include is the set of glob patterns (doublestar syntax, relative
	// to the root) selecting definition files. Defaults to ["**/*.md"].
	Include []string

	// Exclude patterns remove matches from the include set.
	Exclude []string

	// ReadTimeout bounds a single file read. Defaults to DefaultReadTimeout.
	ReadTimeout time.Duration

	// ValidateSchema enables JSON Schema validation of frontmatter
	// during scans.
	ValidateSchema bool

	Logger *slog.Logger
}

// NewFSStore creates a store rooted at dir.
func NewFSStore(dir string, opts Options) *FSStore {
	include := opts.Include
	if len(include) == 0 {
		include = []string{"**/*.md"}
	}
	timeout := opts.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FSStore{
		root:           dir,
		include:        include,
		exclude:        opts.Exclude,
		readTimeout:    timeout,
		validateSchema: opts.ValidateSchema,
		logger:         logger,
	}
}

// Root returns the store's root directory.
func (s *FSStore) Root() string {
	return s.root
}

// Scan walks the store once, parsing every matching file. Files that fail
// to parse or validate are skipped and reported. Duplicate names keep the
// first occurrence in path order.
func (s *FSStore) Scan(ctx context.Context) (*ScanResult, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("stat store root %s: %w", s.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store root %s is not a directory", s.root)
	}

	paths, err := s.matchPaths()
	if err != nil {
		return nil, fmt.Errorf("enumerate store: %w", err)
	}

	result := &ScanResult{}
	seen := make(map[string]string) // name -> first path

	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan cancelled: %w", err)
		}

		def, err := s.readFile(rel)
		if err != nil {
			s.logger.Warn("skipping definition", "path", rel, "error", err)
			result.Skipped = append(result.Skipped, Skip{Path: rel, Reason: err.Error()})
			continue
		}

		if first, dup := seen[def.Name]; dup {
			reason := fmt.Sprintf("duplicate name %q (already defined by %s)", def.Name, first)
			s.logger.Warn("skipping definition", "path", rel, "error", reason)
			result.Skipped = append(result.Skipped, Skip{Path: rel, Reason: reason})
			continue
		}
		seen[def.Name] = rel

		result.Definitions = append(result.Definitions, def)
	}

	return result, nil
}

// Read loads one definition by its path relative to the store root.
// The read is bounded by the store's read timeout.
func (s *FSStore) Read(ctx context.Context, path string) (*definition.Definition, error) {
	ctx, cancel := context.WithTimeout(ctx, s.readTimeout)
	defer cancel()

	type readResult struct {
		def *definition.Definition
		err error
	}
	ch := make(chan readResult, 1)

	go func() {
		def, err := s.readFile(path)
		ch <- readResult{def, err}
	}()

	select {
	case res := <-ch:
		return res.def, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("read %s: %w", path, ctx.Err())
	}
}

// matchPaths returns all relative paths selected by the include patterns
// minus the exclude patterns, sorted for deterministic scan order.
func (s *FSStore) matchPaths() ([]string, error) {
	fsys := os.DirFS(s.root)

	matched := make(map[string]bool)
	for _, pattern := range s.include {
		paths, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, p := range paths {
			matched[p] = true
		}
	}

	for _, pattern := range s.exclude {
		for p := range matched {
			ok, err := doublestar.Match(pattern, p)
			if err != nil {
				return nil, fmt.Errorf("exclude glob %q: %w", pattern, err)
			}
			if ok {
				delete(matched, p)
			}
		}
	}

	paths := make([]string, 0, len(matched))
	for p := range matched {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// readFile reads and parses one definition file.
func (s *FSStore) readFile(rel string) (*definition.Definition, error) {
	content, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}

	fm, body, err := definition.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rel, err)
	}
	if err := fm.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", rel, err)
	}
	if s.validateSchema {
		if err := fm.ValidateSchema(); err != nil {
			return nil, fmt.Errorf("validate %s: %w", rel, err)
		}
	}

	return &definition.Definition{
		Frontmatter: *fm,
		Path:        rel,
		Size:        int64(len(content)),
		Prompt:      body,
	}, nil
}
