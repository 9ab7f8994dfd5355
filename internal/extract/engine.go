package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ExtractDocument parses raw HTML as a full document and evaluates the rule
// against the document root.
//
// The only possible error is an unparseable document; evaluation itself is
// total. Missing matches are represented in the returned Value, never as an
// error.
func (c *Compiled) ExtractDocument(rawHTML string) (Value, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Value{}, fmt.Errorf("parse html document: %w", err)
	}
	return c.Evaluate(doc.Selection), nil
}

// ExtractFragment parses raw HTML as a fragment (no implied html/body
// wrapping) and evaluates the rule against the fragment root.
func (c *Compiled) ExtractFragment(rawHTML string) (Value, error) {
	nodes, err := html.ParseFragment(strings.NewReader(rawHTML), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return Value{}, fmt.Errorf("parse html fragment: %w", err)
	}

	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return c.Evaluate(goquery.NewDocumentFromNode(root).Selection), nil
}

// Evaluate applies the rule to root's subtree and assembles the result.
//
// Semantics:
//   - Many rules collect the single-node result of every match, in document
//     order, into a List (possibly empty).
//   - Single rules take the first match; with no match the result is the
//     rule's structural absence (empty List / Map of absent children /
//     absent Leaf).
//   - A rule with children evaluates each child with the matched node as
//     its new root and assembles a Map; its own target is ignored.
//
// Evaluate cannot fail and mutates neither root nor the rule.
func (c *Compiled) Evaluate(root *goquery.Selection) Value {
	matches := root.FindMatcher(c.matcher)

	if c.many {
		elems := make([]Value, 0, matches.Length())
		matches.Each(func(_ int, sel *goquery.Selection) {
			elems = append(elems, c.single(sel))
		})
		return List(elems...)
	}

	if matches.Length() == 0 {
		return c.noMatch()
	}
	return c.single(matches.First())
}

// single produces the result for one matched node.
func (c *Compiled) single(sel *goquery.Selection) Value {
	if len(c.children) > 0 {
		names := make([]string, len(c.children))
		values := make([]Value, len(c.children))
		for i, child := range c.children {
			names[i] = child.name
			values[i] = child.rule.Evaluate(sel)
		}
		return Map(names, values)
	}

	s, ok := c.applyTarget(sel)
	if ok && c.match != nil {
		s, ok = matchFilter(s, c.match)
	}
	if !ok {
		return AbsentLeaf()
	}
	return Leaf(s)
}

// noMatch builds the structural "nothing matched" result. Absence propagates
// through children rather than aborting: a childed rule still yields a Map,
// with every entry holding its own no-match result.
func (c *Compiled) noMatch() Value {
	if c.many {
		return List()
	}
	if len(c.children) > 0 {
		names := make([]string, len(c.children))
		values := make([]Value, len(c.children))
		for i, child := range c.children {
			names[i] = child.name
			values[i] = child.rule.noMatch()
		}
		return Map(names, values)
	}
	return AbsentLeaf()
}

// applyTarget extracts the rule's scalar from one matched node. The boolean
// reports presence; a missing attribute yields absence rather than "".
func (c *Compiled) applyTarget(sel *goquery.Selection) (string, bool) {
	switch c.target.kind {
	case targetHTML:
		markup, err := sel.Html()
		if err != nil {
			return "", false
		}
		return markup, true

	case targetOuterHTML:
		markup, err := goquery.OuterHtml(sel)
		if err != nil {
			return "", false
		}
		return markup, true

	case targetAttr:
		val, ok := sel.Attr(c.target.attr)
		if !ok {
			return "", false
		}
		return strings.TrimSpace(val), true

	default:
		return strings.TrimSpace(sel.Text()), true
	}
}

// matchFilter applies the rule's regex to an extracted scalar.
//
// Behavior:
//   - no match ⇒ absent
//   - capture groups present ⇒ group 1
//   - no capture groups ⇒ the full match
func matchFilter(s string, re *regexp.Regexp) (string, bool) {
	sm := re.FindStringSubmatch(s)
	if len(sm) == 0 {
		return "", false
	}
	if len(sm) > 1 {
		return sm[1], true
	}
	return sm[0], true
}
