// Package pathtrie matches observed filesystem paths against configured
// watched paths. Paths are backslash-delimited and compared case-insensitively.
package pathtrie

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Separator is the segment separator of agent paths.
const Separator = `\`

type node struct {
	children map[string]*node
	// matched holds the original configured path when this node ends one.
	matched string
	terminal bool
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

// Trie is a prefix tree over lower-cased path segments. A Trie is not safe
// for concurrent Insert; once built it may be matched from any goroutine.
type Trie struct {
	root *node
	size int
}

// New returns an empty trie.
func New() *Trie {
	return &Trie{root: newNode()}
}

// Build returns a trie holding every path in paths.
func Build(paths []string) *Trie {
	t := New()
	for _, p := range paths {
		t.Insert(p)
	}
	return t
}

// Insert stores path, keyed by its normalized segments. The terminal node
// keeps path verbatim, replacing any earlier value. A path without
// segments is ignored.
func (t *Trie) Insert(path string) {
	segments := Segments(path)
	if len(segments) == 0 {
		return
	}

	n := t.root
	for _, seg := range segments {
		child, ok := n.children[seg]
		if !ok {
			child = newNode()
			n.children[seg] = child
		}
		n = child
	}
	if !n.terminal {
		t.size++
	}
	n.terminal = true
	n.matched = path
}

// MatchLongestPrefix walks observed segment by segment and returns the
// stored path of the first terminal node reached. Deeper configured paths
// below that node are never considered.
func (t *Trie) MatchLongestPrefix(observed string) (string, bool) {
	n := t.root
	for _, seg := range Segments(observed) {
		child, ok := n.children[seg]
		if !ok {
			return "", false
		}
		if child.terminal {
			return child.matched, true
		}
		n = child
	}
	return "", false
}

// Len returns the number of distinct stored paths.
func (t *Trie) Len() int {
	return t.size
}

// Paths returns the stored paths in depth-first, segment-sorted order.
func (t *Trie) Paths() []string {
	var out []string
	var walk func(n *node)
	walk = func(n *node) {
		if n.terminal {
			out = append(out, n.matched)
		}
		keys := make([]string, 0, len(n.children))
		for k := range n.children {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(n.children[k])
		}
	}
	walk(t.root)
	return out
}

// Segments splits path on the separator, trims and drops empty segments,
// and case-folds each one into its trie key.
func Segments(path string) []string {
	if path == "" {
		return nil
	}
	lower := cases.Lower(language.Und)
	parts := strings.Split(path, Separator)
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		segments = append(segments, lower.String(norm.NFC.String(p)))
	}
	return segments
}
