package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/agentry/internal/db/driver"
)

// DefinitionRecord is one row of the metadata index.
type DefinitionRecord struct {
	Name         string
	Description  string
	Version      string
	Capabilities []string
	ContentType  string
	Path         string
	Size         int64
	IndexedAt    string
}

// Filter narrows a definition search. Zero-value fields are ignored.
type Filter struct {
	Capability string // exact membership in the capabilities array
	Contains   string // case-insensitive substring of name or description
}

// ReplaceDefinitions atomically swaps the index contents for the given
// records. Used on startup and on rebuild so readers never see a
// half-built index.
func (d *DB) ReplaceDefinitions(ctx context.Context, records []*DefinitionRecord) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(ctx, "DELETE FROM definitions"); err != nil {
		return fmt.Errorf("clear definitions: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	insert := fmt.Sprintf(`
		INSERT INTO definitions (name, description, version, capabilities, content_type, path, size, indexed_at)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`,
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4),
		d.Placeholder(5), d.Placeholder(6), d.Placeholder(7), d.Placeholder(8))

	for _, r := range records {
		caps, err := json.Marshal(r.Capabilities)
		if err != nil {
			return fmt.Errorf("marshal capabilities for %s: %w", r.Name, err)
		}
		if r.Capabilities == nil {
			caps = []byte("[]")
		}
		if _, err := tx.Exec(ctx, insert,
			r.Name, r.Description, r.Version, string(caps),
			r.ContentType, r.Path, r.Size, now,
		); err != nil {
			return fmt.Errorf("insert definition %s: %w", r.Name, err)
		}
	}

	return tx.Commit()
}

// GetDefinition retrieves an index row by exact name.
// Returns nil, nil if not found.
func (d *DB) GetDefinition(ctx context.Context, name string) (*DefinitionRecord, error) {
	query := fmt.Sprintf(`
		SELECT name, description, version, capabilities, content_type, path, size, indexed_at
		FROM definitions WHERE name = %s`, d.Placeholder(1))

	r, err := scanDefinition(d.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get definition %s: %w", name, err)
	}
	return r, nil
}

// ListDefinitions returns a page of index rows ordered by name, plus the
// total row count so callers can compute pagination cursors.
func (d *DB) ListDefinitions(ctx context.Context, offset, limit int) ([]*DefinitionRecord, int, error) {
	total, err := d.CountDefinitions(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT name, description, version, capabilities, content_type, path, size, indexed_at
		FROM definitions
		ORDER BY name ASC
		LIMIT %s OFFSET %s`, d.Placeholder(1), d.Placeholder(2))

	rows, err := d.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list definitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records, err := collectDefinitions(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// SearchDefinitions returns index rows matching the filter, ordered by name.
func (d *DB) SearchDefinitions(ctx context.Context, f Filter) ([]*DefinitionRecord, error) {
	var (
		conds []string
		args  []any
	)
	next := func() string { return d.Placeholder(len(args)) }

	if f.Capability != "" {
		// Capabilities are stored as a JSON string array; match the
		// quoted element to avoid prefix collisions.
		col := "capabilities"
		if d.Dialect() == driver.DialectPostgres {
			col = "capabilities::text"
		}
		args = append(args, `%"`+f.Capability+`"%`)
		conds = append(conds, col+" LIKE "+next())
	}
	if f.Contains != "" {
		pattern := "%" + strings.ToLower(f.Contains) + "%"
		args = append(args, pattern)
		c := "LOWER(name) LIKE " + next()
		args = append(args, pattern)
		c += " OR LOWER(description) LIKE " + next()
		conds = append(conds, "("+c+")")
	}

	query := `
		SELECT name, description, version, capabilities, content_type, path, size, indexed_at
		FROM definitions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name ASC"

	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search definitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectDefinitions(rows)
}

// CountDefinitions returns the number of indexed definitions.
func (d *DB) CountDefinitions(ctx context.Context) (int, error) {
	var n int
	if err := d.QueryRowContext(ctx, "SELECT COUNT(*) FROM definitions").Scan(&n); err != nil {
		return 0, fmt.Errorf("count definitions: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (*DefinitionRecord, error) {
	var r DefinitionRecord
	var caps string
	if err := row.Scan(
		&r.Name, &r.Description, &r.Version, &caps,
		&r.ContentType, &r.Path, &r.Size, &r.IndexedAt,
	); err != nil {
		return nil, err
	}
	if caps != "" {
		if err := json.Unmarshal([]byte(caps), &r.Capabilities); err != nil {
			return nil, fmt.Errorf("unmarshal capabilities: %w", err)
		}
	}
	return &r, nil
}

func collectDefinitions(rows *sql.Rows) ([]*DefinitionRecord, error) {
	var records []*DefinitionRecord
	for rows.Next() {
		r, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
