package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	stderrors "errors"

	"github.com/randalmurphal/agentry/internal/db"
	"github.com/randalmurphal/agentry/internal/errors"
	"github.com/randalmurphal/agentry/internal/store"
)

func writeAgent(t *testing.T, dir, name, description string) {
	t.Helper()
	content := fmt.Sprintf(`---
name: %s
description: %s
---

You are %s.
`, name, description, name)
	if err := os.WriteFile(filepath.Join(dir, name+".md"), []byte(content), 0644); err != nil {
		t.Fatalf("write agent %s: %v", name, err)
	}
}

func newTestIndex(t *testing.T, dir string, opts Options) *Index {
	t.Helper()
	return New(db.NewTestDB(t), store.NewFSStore(dir, store.Options{}), opts)
}

func buildTestIndex(t *testing.T, names ...string) *Index {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		writeAgent(t, dir, name, "does "+name+" things")
	}
	ix := newTestIndex(t, dir, Options{})
	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ix
}

func TestBuild_MissingRootIsFatal(t *testing.T) {
	t.Parallel()
	ix := newTestIndex(t, filepath.Join(t.TempDir(), "missing"), Options{})

	err := ix.Build(context.Background())
	if err == nil {
		t.Fatal("expected error for missing store root")
	}
	var regErr *errors.RegistryError
	if !stderrors.As(err, &regErr) || regErr.Code != errors.CodeIndexBuild {
		t.Errorf("error = %v, want code %s", err, errors.CodeIndexBuild)
	}
}

func TestBuild_SkipsMalformedWithoutFailing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeAgent(t, dir, "alpha", "first")
	if err := os.WriteFile(filepath.Join(dir, "broken.md"), []byte("no frontmatter here"), 0644); err != nil {
		t.Fatalf("write broken file: %v", err)
	}

	ix := newTestIndex(t, dir, Options{})
	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	n, err := ix.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("indexed = %d, want 1", n)
	}
	if len(ix.Skipped()) != 1 {
		t.Errorf("skipped = %d, want 1", len(ix.Skipped()))
	}
}

func TestList_AlphabeticalAndStable(t *testing.T) {
	t.Parallel()
	ix := buildTestIndex(t, "gamma", "alpha", "beta")
	ctx := context.Background()

	page, err := ix.List(ctx, 0, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"alpha", "beta", "gamma"}
	if len(page.Records) != len(want) {
		t.Fatalf("got %d records, want %d", len(page.Records), len(want))
	}
	for i, name := range want {
		if page.Records[i].Name != name {
			t.Errorf("record[%d] = %q, want %q", i, page.Records[i].Name, name)
		}
	}
	if page.Total != 3 {
		t.Errorf("Total = %d, want 3", page.Total)
	}
	if page.NextCursor != "" {
		t.Errorf("NextCursor = %q, want empty on complete listing", page.NextCursor)
	}
}

func TestList_Pagination(t *testing.T) {
	t.Parallel()
	ix := buildTestIndex(t, "a1", "a2", "a3", "a4", "a5")
	ctx := context.Background()

	// Page through with limit 2; pages must tile the full listing with no
	// overlap and no gaps.
	var collected []string
	offset := 0
	for {
		page, err := ix.List(ctx, offset, 2)
		if err != nil {
			t.Fatalf("List offset=%d: %v", offset, err)
		}
		for _, r := range page.Records {
			collected = append(collected, r.Name)
		}
		if page.NextCursor == "" {
			break
		}
		fmt.Sscanf(page.NextCursor, "%d", &offset)
	}

	want := []string{"a1", "a2", "a3", "a4", "a5"}
	if len(collected) != len(want) {
		t.Fatalf("collected %v, want %v", collected, want)
	}
	for i := range want {
		if collected[i] != want[i] {
			t.Errorf("collected[%d] = %q, want %q", i, collected[i], want[i])
		}
	}
}

func TestList_OffsetPastEnd(t *testing.T) {
	t.Parallel()
	ix := buildTestIndex(t, "alpha")

	page, err := ix.List(context.Background(), 50, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Records) != 0 {
		t.Errorf("got %d records past end, want 0", len(page.Records))
	}
	if page.NextCursor != "" {
		t.Errorf("NextCursor = %q, want empty", page.NextCursor)
	}
	if page.Total != 1 {
		t.Errorf("Total = %d, want 1", page.Total)
	}
}

func TestList_LimitDefaultsAndClamping(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for i := 0; i < 30; i++ {
		writeAgent(t, dir, fmt.Sprintf("agent-%02d", i), "numbered")
	}
	ix := newTestIndex(t, dir, Options{MaxLimit: 25})
	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	ctx := context.Background()

	// limit 0 falls back to the default page size
	page, err := ix.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List default: %v", err)
	}
	if len(page.Records) != DefaultLimit {
		t.Errorf("default limit page = %d records, want %d", len(page.Records), DefaultLimit)
	}
	if page.NextCursor != "20" {
		t.Errorf("NextCursor = %q, want \"20\"", page.NextCursor)
	}

	// limit above max is clamped
	page, err = ix.List(ctx, 0, 1000)
	if err != nil {
		t.Fatalf("List clamped: %v", err)
	}
	if len(page.Records) != 25 {
		t.Errorf("clamped page = %d records, want 25", len(page.Records))
	}
}

func TestGet(t *testing.T) {
	t.Parallel()
	ix := buildTestIndex(t, "alpha", "beta")
	ctx := context.Background()

	meta, err := ix.Get(ctx, "beta")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if meta == nil || meta.Name != "beta" {
		t.Fatalf("Get beta = %+v", meta)
	}
	if meta.Path == "" || meta.Size == 0 {
		t.Errorf("file pointer not populated: path=%q size=%d", meta.Path, meta.Size)
	}

	missing, err := ix.Get(ctx, "nope")
	if err != nil {
		t.Fatalf("Get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("Get unknown name = %+v, want nil", missing)
	}
}

func TestQuery(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	content := `---
name: reviewer
description: reviews pull requests
capabilities:
  - review
  - lint
---

Review things.
`
	if err := os.WriteFile(filepath.Join(dir, "reviewer.md"), []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	writeAgent(t, dir, "planner", "plans releases")

	ix := newTestIndex(t, dir, Options{})
	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	ctx := context.Background()

	byCap, err := ix.Query(ctx, QueryParams{Capability: "lint"})
	if err != nil {
		t.Fatalf("Query capability: %v", err)
	}
	if len(byCap) != 1 || byCap[0].Name != "reviewer" {
		t.Errorf("capability query = %+v", byCap)
	}

	byText, err := ix.Query(ctx, QueryParams{Contains: "releases"})
	if err != nil {
		t.Fatalf("Query contains: %v", err)
	}
	if len(byText) != 1 || byText[0].Name != "planner" {
		t.Errorf("contains query = %+v", byText)
	}
}

func TestBuild_Rebuild(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeAgent(t, dir, "alpha", "first")

	ix := newTestIndex(t, dir, Options{})
	ctx := context.Background()
	if err := ix.Build(ctx); err != nil {
		t.Fatalf("Build: %v", err)
	}

	writeAgent(t, dir, "beta", "second")
	if err := ix.Build(ctx); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	n, err := ix.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("count after rebuild = %d, want 2", n)
	}
}
