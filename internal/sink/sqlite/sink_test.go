package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"harvest/internal/extract"
)

// TestFlatten verifies path construction across nested maps, lists and
// absent leaves.
func TestFlatten(t *testing.T) {
	t.Parallel()

	v := extract.Map(
		[]string{"rows", "title"},
		[]extract.Value{
			extract.List(
				extract.Map([]string{"name"}, []extract.Value{extract.Leaf("A")}),
				extract.Map([]string{"name"}, []extract.Value{extract.AbsentLeaf()}),
			),
			extract.Leaf("T"),
		},
	)

	got := Flatten(v)
	want := []Row{
		{Path: "rows[0].name", Value: "A"},
		{Path: "title", Value: "T"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Flatten: want %#v, got %#v", want, got)
	}
}

// TestFlatten_BareLeaf verifies a top-level leaf gets the fallback path.
func TestFlatten_BareLeaf(t *testing.T) {
	t.Parallel()

	got := Flatten(extract.Leaf("x"))
	if len(got) != 1 || got[0].Path != "value" || got[0].Value != "x" {
		t.Fatalf("unexpected rows: %#v", got)
	}
}

// TestSink_Store verifies end-to-end persistence: open, store, and read
// back rows in insertion order.
func TestSink_Store(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(s.Close)

	v := extract.Map([]string{"title"}, []extract.Value{extract.Leaf("T")})
	if err := s.Store(ctx, "page-1.html", v); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// Storing a value with no present leaves is a no-op, not an error.
	if err := s.Store(ctx, "page-2.html", extract.AbsentLeaf()); err != nil {
		t.Fatalf("Store empty: %v", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT source, path, value FROM results ORDER BY id`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()

	var n int
	for rows.Next() {
		var source, p, val string
		if err := rows.Scan(&source, &p, &val); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if source != "page-1.html" || p != "title" || val != "T" {
			t.Fatalf("unexpected row: %s %s %s", source, p, val)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
}
