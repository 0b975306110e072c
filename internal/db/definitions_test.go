package db

import (
	"context"
	"testing"
)

func seedDefinitions(t *testing.T, d *DB, names ...string) {
	t.Helper()
	records := make([]*DefinitionRecord, 0, len(names))
	for _, name := range names {
		records = append(records, &DefinitionRecord{
			Name:        name,
			Description: "agent " + name,
			Version:     "1.0.0",
			ContentType: "application/vnd.agentry.agent",
			Path:        "/agents/" + name + ".md",
			Size:        100,
		})
	}
	if err := d.ReplaceDefinitions(context.Background(), records); err != nil {
		t.Fatalf("ReplaceDefinitions: %v", err)
	}
}

func TestReplaceDefinitions_SwapsContents(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	seedDefinitions(t, d, "alpha", "beta")
	seedDefinitions(t, d, "gamma")

	total, err := d.CountDefinitions(ctx)
	if err != nil {
		t.Fatalf("CountDefinitions: %v", err)
	}
	if total != 1 {
		t.Errorf("count after replace = %d, want 1", total)
	}

	rec, err := d.GetDefinition(ctx, "alpha")
	if err != nil {
		t.Fatalf("GetDefinition: %v", err)
	}
	if rec != nil {
		t.Error("alpha should be gone after replace")
	}
}

func TestGetDefinition(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	if err := d.ReplaceDefinitions(ctx, []*DefinitionRecord{{
		Name:         "reviewer",
		Description:  "reviews code",
		Version:      "2.1.0",
		Capabilities: []string{"review", "lint"},
		ContentType:  "application/vnd.agentry.agent",
		Path:         "/agents/reviewer.md",
		Size:         512,
	}}); err != nil {
		t.Fatalf("ReplaceDefinitions: %v", err)
	}

	rec, err := d.GetDefinition(ctx, "reviewer")
	if err != nil {
		t.Fatalf("GetDefinition: %v", err)
	}
	if rec == nil {
		t.Fatal("expected record, got nil")
	}
	if rec.Version != "2.1.0" {
		t.Errorf("Version = %q, want 2.1.0", rec.Version)
	}
	if len(rec.Capabilities) != 2 || rec.Capabilities[0] != "review" {
		t.Errorf("Capabilities = %v", rec.Capabilities)
	}
	if rec.IndexedAt == "" {
		t.Error("IndexedAt not set")
	}

	missing, err := d.GetDefinition(ctx, "nope")
	if err != nil {
		t.Fatalf("GetDefinition missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing name")
	}
}

func TestListDefinitions_OrderAndPaging(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	// Insert out of order; listing must come back alphabetical.
	seedDefinitions(t, d, "gamma", "alpha", "beta", "delta")

	page, total, err := d.ListDefinitions(ctx, 0, 2)
	if err != nil {
		t.Fatalf("ListDefinitions: %v", err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	if len(page) != 2 || page[0].Name != "alpha" || page[1].Name != "beta" {
		t.Errorf("first page = %v", names(page))
	}

	page, _, err = d.ListDefinitions(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListDefinitions offset: %v", err)
	}
	if len(page) != 2 || page[0].Name != "delta" || page[1].Name != "gamma" {
		t.Errorf("second page = %v", names(page))
	}

	page, _, err = d.ListDefinitions(ctx, 10, 2)
	if err != nil {
		t.Fatalf("ListDefinitions past end: %v", err)
	}
	if len(page) != 0 {
		t.Errorf("page past end = %v, want empty", names(page))
	}
}

func TestSearchDefinitions(t *testing.T) {
	t.Parallel()
	d := NewTestDB(t)
	ctx := context.Background()

	if err := d.ReplaceDefinitions(ctx, []*DefinitionRecord{
		{Name: "planner", Description: "plans work", Capabilities: []string{"plan"}, ContentType: "t", Path: "p"},
		{Name: "reviewer", Description: "reviews plans", Capabilities: []string{"review"}, ContentType: "t", Path: "p"},
		{Name: "tester", Description: "runs tests", Capabilities: []string{"test", "review"}, ContentType: "t", Path: "p"},
	}); err != nil {
		t.Fatalf("ReplaceDefinitions: %v", err)
	}

	byCap, err := d.SearchDefinitions(ctx, Filter{Capability: "review"})
	if err != nil {
		t.Fatalf("SearchDefinitions capability: %v", err)
	}
	if len(byCap) != 2 || byCap[0].Name != "reviewer" || byCap[1].Name != "tester" {
		t.Errorf("capability search = %v", names(byCap))
	}

	byText, err := d.SearchDefinitions(ctx, Filter{Contains: "PLAN"})
	if err != nil {
		t.Fatalf("SearchDefinitions contains: %v", err)
	}
	if len(byText) != 2 || byText[0].Name != "planner" || byText[1].Name != "reviewer" {
		t.Errorf("contains search = %v", names(byText))
	}

	both, err := d.SearchDefinitions(ctx, Filter{Capability: "review", Contains: "plan"})
	if err != nil {
		t.Fatalf("SearchDefinitions combined: %v", err)
	}
	if len(both) != 1 || both[0].Name != "reviewer" {
		t.Errorf("combined search = %v", names(both))
	}

	all, err := d.SearchDefinitions(ctx, Filter{})
	if err != nil {
		t.Fatalf("SearchDefinitions empty filter: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("empty filter = %v, want all 3", names(all))
	}
}

func names(records []*DefinitionRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}
