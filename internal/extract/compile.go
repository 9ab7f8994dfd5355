package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
)

// Compiled is the validated, ready-to-evaluate form of a Spec: the selector
// is pre-parsed, the optional regex is pre-compiled, and children are
// compiled recursively.
//
// A Compiled is immutable and carries no reference back to its Spec, so it
// is safe to share across concurrently running evaluations.
type Compiled struct {
	matcher  cascadia.Selector
	target   Target
	many     bool
	match    *regexp.Regexp
	children []compiledChild
}

// compiledChild pairs a field name with its compiled rule. Children are kept
// in lexicographic name order so evaluation output is deterministic.
type compiledChild struct {
	name string
	rule *Compiled
}

// Compile validates spec and every nested child, producing a Compiled.
//
// Failures are structural only — an empty or unparseable selector, or an
// invalid match regex — and are reported as wrapped ErrInvalidSpec with the
// offending child path. Children are compiled depth-first; the first error
// aborts compilation and no partial Compiled is returned.
//
// Compile never touches HTML. Callers are expected to reuse the result
// across many extractions; no caching happens here.
func Compile(spec *Spec) (*Compiled, error) {
	return compile(spec, "")
}

func compile(spec *Spec, path string) (*Compiled, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: %s: nil spec", ErrInvalidSpec, pathLabel(path))
	}
	if strings.TrimSpace(spec.Selector) == "" {
		return nil, fmt.Errorf("%w: %s: empty selector", ErrInvalidSpec, pathLabel(path))
	}

	matcher, err := cascadia.Compile(spec.Selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: selector %q: %v", ErrInvalidSpec, pathLabel(path), spec.Selector, err)
	}

	c := &Compiled{
		matcher: matcher,
		target:  ParseTarget(spec.Target),
		many:    spec.Many,
	}

	if strings.TrimSpace(spec.Match) != "" {
		re, err := regexp.Compile(spec.Match)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: match regex %q: %v", ErrInvalidSpec, pathLabel(path), spec.Match, err)
		}
		c.match = re
	}

	names := make([]string, 0, len(spec.Children))
	for name := range spec.Children {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		child, err := compile(spec.Children[name], fieldPath(path, name))
		if err != nil {
			return nil, err
		}
		c.children = append(c.children, compiledChild{name: name, rule: child})
	}

	return c, nil
}

func pathLabel(path string) string {
	if path == "" {
		return "root"
	}
	return path
}

// Many reports whether evaluation yields a List.
func (c *Compiled) Many() bool { return c.many }

// HasChildren reports whether evaluation yields a Map (for a single node).
func (c *Compiled) HasChildren() bool { return len(c.children) > 0 }
