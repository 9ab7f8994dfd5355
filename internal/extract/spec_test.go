package extract

import (
	"errors"
	"testing"
)

// TestParseSpec_JSON verifies the JSON wire schema, including flattened
// child rules alongside the recognized fields.
func TestParseSpec_JSON(t *testing.T) {
	t.Parallel()

	spec, err := ParseSpec([]byte(`{
		"selector": ".parent",
		"many": true,
		"title": {"selector": "h2", "target": "text"},
		"link": {"selector": "a", "target": "href", "match": "https://(.*)"}
	}`), JSON)
	if err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}

	if spec.Selector != ".parent" || !spec.Many {
		t.Fatalf("root fields wrong: %#v", spec)
	}
	if len(spec.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(spec.Children))
	}
	if spec.Children["link"].Match != "https://(.*)" {
		t.Fatalf("link child lost its match: %#v", spec.Children["link"])
	}
}

// TestParseSpec_TOML verifies the same schema decodes from TOML, where
// child rules appear as nested tables.
func TestParseSpec_TOML(t *testing.T) {
	t.Parallel()

	spec, err := ParseSpec([]byte(`
selector = ".parent"

[title]
selector = "h2"
target = "text"
`), TOML)
	if err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}
	if spec.Selector != ".parent" {
		t.Fatalf("selector wrong: %q", spec.Selector)
	}
	if spec.Children["title"] == nil || spec.Children["title"].Selector != "h2" {
		t.Fatalf("title child wrong: %#v", spec.Children["title"])
	}
}

// TestParseSpec_UnknownScalarField verifies a stray non-object field is
// rejected: only child rules may occupy unrecognized keys.
func TestParseSpec_UnknownScalarField(t *testing.T) {
	t.Parallel()

	_, err := ParseSpec([]byte(`{"selector": "a", "bogus": 7}`), JSON)
	if !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec, got %v", err)
	}
}

// TestParseSpec_FieldTypeErrors verifies mistyped recognized fields fail
// with a path-annotated error.
func TestParseSpec_FieldTypeErrors(t *testing.T) {
	t.Parallel()

	cases := []string{
		`{"selector": 1}`,
		`{"selector": "a", "many": "yes"}`,
		`{"selector": "a", "child": {"selector": "b", "target": false}}`,
	}
	for _, doc := range cases {
		if _, err := ParseSpec([]byte(doc), JSON); !errors.Is(err, ErrInvalidSpec) {
			t.Fatalf("doc %s: expected ErrInvalidSpec, got %v", doc, err)
		}
	}
}

// TestParseSpec_BadDocument verifies unparseable input is an error distinct
// from spec validation (the decoder's own failure).
func TestParseSpec_BadDocument(t *testing.T) {
	t.Parallel()

	if _, err := ParseSpec([]byte(`{`), JSON); err == nil {
		t.Fatalf("expected error for truncated json")
	}
	if _, err := ParseSpec([]byte(`selector = `), TOML); err == nil {
		t.Fatalf("expected error for truncated toml")
	}
}

// TestParseTarget covers the target name convention: known keywords plus
// the attribute fallback.
func TestParseTarget(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", "text"},
		{"text", "text"},
		{"html", "html"},
		{"outer_html", "outer_html"},
		{"href", "href"},
		{" data-id ", "data-id"},
	}
	for _, c := range cases {
		if got := ParseTarget(c.in).String(); got != c.want {
			t.Fatalf("ParseTarget(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
