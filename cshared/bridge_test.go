package main

import (
	"encoding/json"
	"strings"
	"testing"
)

// TestBoundary_RoundTrip verifies the full handle lifecycle: compile a spec,
// evaluate it against a fragment and a document, then release the handle.
func TestBoundary_RoundTrip(t *testing.T) {
	t.Parallel()

	handle, code := compileHandle(`{"selector": "a", "target": "href"}`, formatJSON)
	if code != codeOK {
		t.Fatalf("compileHandle returned code %d", code)
	}
	if handle == 0 {
		t.Fatalf("expected a non-zero handle")
	}
	defer releaseHandle(handle)

	out, code := extractHandle(`<a href="www.xxx.com">`, handle, formatJSON, false)
	if code != codeOK {
		t.Fatalf("extractHandle fragment returned code %d", code)
	}
	var got string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not a json scalar: %v; out=%s", err, out)
	}
	if got != "www.xxx.com" {
		t.Fatalf("expected www.xxx.com, got %q", got)
	}

	// The same handle serves document parsing; only the parse differs.
	out, code = extractHandle(`<html><body><a href="u">x</a></body></html>`, handle, formatJSON, true)
	if code != codeOK {
		t.Fatalf("extractHandle document returned code %d", code)
	}
	if out != `"u"` {
		t.Fatalf("expected \"u\", got %s", out)
	}
}

// TestBoundary_TOML verifies a TOML spec in and TOML result out.
func TestBoundary_TOML(t *testing.T) {
	t.Parallel()

	handle, code := compileHandle("selector = \"li\"\ntarget = \"text\"\nmany = true\n", formatTOML)
	if code != codeOK {
		t.Fatalf("compileHandle returned code %d", code)
	}
	defer releaseHandle(handle)

	out, code := extractHandle(`<ul><li>a</li><li>b</li></ul>`, handle, formatTOML, false)
	if code != codeOK {
		t.Fatalf("extractHandle returned code %d", code)
	}
	if !strings.Contains(out, "value") || !strings.Contains(out, "a") || !strings.Contains(out, "b") {
		t.Fatalf("unexpected toml output: %q", out)
	}
}

// TestBoundary_CompileInvalidArgs verifies every compile failure collapses
// to the invalid-args code with no handle.
func TestBoundary_CompileInvalidArgs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		spec   string
		format int
	}{
		{"unknown format", `{"selector": "a"}`, 42},
		{"unparseable document", `{`, formatJSON},
		{"empty selector", `{"selector": ""}`, formatJSON},
		{"bad selector", `{"selector": "a["}`, formatJSON},
	}
	for _, c := range cases {
		handle, code := compileHandle(c.spec, c.format)
		if code != codeInvalidArgs {
			t.Fatalf("%s: expected code %d, got %d", c.name, codeInvalidArgs, code)
		}
		if handle != 0 {
			t.Fatalf("%s: expected zero handle on failure, got %d", c.name, handle)
		}
	}
}

// TestBoundary_ExtractInvalidArgs verifies the evaluation entry points
// reject a zero handle and an unknown output format.
func TestBoundary_ExtractInvalidArgs(t *testing.T) {
	t.Parallel()

	if _, code := extractHandle(`<p>x</p>`, 0, formatJSON, false); code != codeInvalidArgs {
		t.Fatalf("zero handle: expected code %d, got %d", codeInvalidArgs, code)
	}

	handle, code := compileHandle(`{"selector": "p"}`, formatJSON)
	if code != codeOK {
		t.Fatalf("compileHandle returned code %d", code)
	}
	defer releaseHandle(handle)

	if _, code := extractHandle(`<p>x</p>`, handle, 42, false); code != codeInvalidArgs {
		t.Fatalf("unknown format: expected code %d, got %d", codeInvalidArgs, code)
	}
}

// TestBoundary_IndependentHandles verifies handles are independent: each is
// released once, and releasing one leaves the other usable.
func TestBoundary_IndependentHandles(t *testing.T) {
	t.Parallel()

	h1, code := compileHandle(`{"selector": "h1", "target": "text"}`, formatJSON)
	if code != codeOK {
		t.Fatalf("compileHandle h1 returned code %d", code)
	}
	h2, code := compileHandle(`{"selector": "h2", "target": "text"}`, formatJSON)
	if code != codeOK {
		t.Fatalf("compileHandle h2 returned code %d", code)
	}

	releaseHandle(h1)

	out, code := extractHandle(`<h2>two</h2>`, h2, formatJSON, false)
	if code != codeOK {
		t.Fatalf("extractHandle after releasing sibling returned code %d", code)
	}
	if out != `"two"` {
		t.Fatalf("expected \"two\", got %s", out)
	}
	releaseHandle(h2)
}
