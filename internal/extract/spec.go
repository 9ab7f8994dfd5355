package extract

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidSpec classifies every compile-time specification failure: empty
// or unparseable selector, invalid regex, or a malformed spec document.
// Evaluation never produces it; missing content at evaluation time is
// represented in the Value, not as an error.
var ErrInvalidSpec = errors.New("invalid extraction spec")

// Spec is one declarative extraction rule.
//
// A Spec with Children describes a nested object: Children are extracted
// relative to each node matched by Selector, and Target is ignored (children
// take precedence). A Spec without Children describes a scalar.
//
// Specs are plain data: build them programmatically or decode them with
// ParseSpec. Compile validates them.
type Spec struct {
	// Selector is a CSS selector evaluated relative to the current root.
	// It must be non-empty.
	Selector string

	// Target names the scalar operation applied to each matched node
	// (see ParseTarget). Empty means "text".
	Target string

	// Many selects list extraction: every match contributes an element.
	// When false, only the first match in document order is used.
	Many bool

	// Match is an optional regex applied to the extracted scalar. If it
	// does not match, the value is treated as absent. If the pattern has
	// capture groups, group 1 is the extracted value; otherwise the full
	// match is.
	Match string

	// Children maps field names to nested rules, each evaluated with the
	// matched node as its root.
	Children map[string]*Spec
}

// Format identifies a spec/result wire format.
type Format int

const (
	JSON Format = iota
	TOML
)

// ParseSpec decodes a spec document in the given format.
//
// Wire schema: the keys "selector", "target", "many" and "match" are the
// rule's own fields; every other key must hold an object/table and becomes a
// named child rule with the same schema. This flattened layout is what the
// serialized spec format uses for nesting:
//
//	selector = ".parent"
//
//	[title]
//	selector = "h2"
//	target = "text"
func ParseSpec(data []byte, format Format) (*Spec, error) {
	raw := map[string]any{}
	switch format {
	case JSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse spec json: %w", err)
		}
	case TOML:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse spec toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown spec format %d", ErrInvalidSpec, format)
	}
	return specFromMap(raw, "")
}

// ParseSpecMap builds a Spec from an already-decoded document, using the
// same schema as ParseSpec. Callers that embed rules inside a larger config
// document (the crawler config does) decode the outer document themselves
// and hand each rule table here.
func ParseSpecMap(raw map[string]any) (*Spec, error) {
	return specFromMap(raw, "")
}

// specFromMap builds a Spec from a decoded document, validating field types.
// path names the enclosing child chain for error messages ("" is the root).
func specFromMap(raw map[string]any, path string) (*Spec, error) {
	s := &Spec{}

	for key, v := range raw {
		switch key {
		case "selector":
			str, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s: selector must be a string", ErrInvalidSpec, fieldPath(path, key))
			}
			s.Selector = str

		case "target":
			str, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s: target must be a string", ErrInvalidSpec, fieldPath(path, key))
			}
			s.Target = str

		case "many":
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: %s: many must be a boolean", ErrInvalidSpec, fieldPath(path, key))
			}
			s.Many = b

		case "match":
			str, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s: match must be a string", ErrInvalidSpec, fieldPath(path, key))
			}
			s.Match = str

		default:
			child, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s: unknown field (child rules must be objects)", ErrInvalidSpec, fieldPath(path, key))
			}
			cs, err := specFromMap(child, fieldPath(path, key))
			if err != nil {
				return nil, err
			}
			if s.Children == nil {
				s.Children = map[string]*Spec{}
			}
			s.Children[key] = cs
		}
	}

	return s, nil
}

func fieldPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
