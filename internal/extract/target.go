package extract

import "strings"

// targetKind discriminates the extraction operation applied to a matched node.
type targetKind int

const (
	targetText targetKind = iota
	targetHTML
	targetOuterHTML
	targetAttr
)

// Target is the scalar extraction operation applied to a matched node.
//
// Targets are parsed from their wire names:
//   - "text" (default): concatenated descendant text, trimmed
//   - "html": the node's inner markup
//   - "outer_html": the node's own markup including the node itself
//   - anything else: the value of the attribute with that name
//
// A Target is immutable once constructed.
type Target struct {
	kind targetKind
	attr string
}

// TextTarget extracts the concatenated text content of a node.
func TextTarget() Target { return Target{kind: targetText} }

// HTMLTarget extracts the node's inner markup.
func HTMLTarget() Target { return Target{kind: targetHTML} }

// OuterHTMLTarget extracts the node's own serialized markup.
func OuterHTMLTarget() Target { return Target{kind: targetOuterHTML} }

// AttrTarget extracts the value of the named attribute.
func AttrTarget(name string) Target { return Target{kind: targetAttr, attr: name} }

// ParseTarget maps a wire name onto a Target. An empty name means "text".
// Unrecognized names are attribute lookups, so parsing never fails.
func ParseTarget(name string) Target {
	switch strings.TrimSpace(name) {
	case "", "text":
		return TextTarget()
	case "html":
		return HTMLTarget()
	case "outer_html":
		return OuterHTMLTarget()
	default:
		return AttrTarget(strings.TrimSpace(name))
	}
}

// String returns the wire name of the target.
func (t Target) String() string {
	switch t.kind {
	case targetHTML:
		return "html"
	case targetOuterHTML:
		return "outer_html"
	case targetAttr:
		return t.attr
	default:
		return "text"
	}
}
