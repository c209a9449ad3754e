package classify

import (
	"fmt"
	"sort"
	"strings"

	"translatex/internal/latex"
)

// CondKind tags the variant of a Cond.
type CondKind int

const (
	// CondNodeKind matches the node's kind.
	CondNodeKind CondKind = iota
	// CondNameIn matches the node's identifying name against a set.
	CondNameIn
	// CondTopLevel matches nodes that have no ancestors.
	CondTopLevel
)

// Cond is one condition of a Rule.
type Cond struct {
	Kind     CondKind
	NodeKind latex.Kind
	Names    map[string]bool
}

// NodeKindIs matches nodes of kind k.
func NodeKindIs(k latex.Kind) Cond {
	return Cond{Kind: CondNodeKind, NodeKind: k}
}

// NameIn matches nodes whose name is one of names.
func NameIn(names ...string) Cond {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return Cond{Kind: CondNameIn, Names: set}
}

// TopLevel matches nodes directly under the document root.
func TopLevel() Cond {
	return Cond{Kind: CondTopLevel}
}

func (c Cond) match(n latex.Node, path []latex.Node) bool {
	switch c.Kind {
	case CondNodeKind:
		return n.Kind() == c.NodeKind
	case CondNameIn:
		return c.Names[n.NodeName()]
	case CondTopLevel:
		return len(path) == 0
	}
	return false
}

// Rule is a conjunction of conditions. A rule with no conditions matches
// every node.
type Rule struct {
	Conds []Cond
}

// NewRule builds a rule from conditions.
func NewRule(conds ...Cond) Rule {
	return Rule{Conds: conds}
}

// Match reports whether every condition holds for n at path.
func (r Rule) Match(n latex.Node, path []latex.Node) bool {
	for _, c := range r.Conds {
		if !c.match(n, path) {
			return false
		}
	}
	return true
}

// matchIgnoringPosition is Match without CondTopLevel. It answers "could
// any rule ever apply to this node", which is what coverage auditing needs.
func (r Rule) matchIgnoringPosition(n latex.Node) bool {
	for _, c := range r.Conds {
		if c.Kind == CondTopLevel {
			continue
		}
		if !c.match(n, nil) {
			return false
		}
	}
	return true
}

// String renders the rule as "$ macro[name1 name2]"; a leading $ marks
// top-level rules and * any depth.
func (r Rule) String() string {
	var b strings.Builder
	pos := "*"
	kind := "any"
	var names []string
	for _, c := range r.Conds {
		switch c.Kind {
		case CondTopLevel:
			pos = "$"
		case CondNodeKind:
			kind = c.NodeKind.String()
		case CondNameIn:
			for name := range c.Names {
				names = append(names, name)
			}
		}
	}
	fmt.Fprintf(&b, "%s %s", pos, kind)
	if len(names) > 0 {
		sort.Strings(names)
		fmt.Fprintf(&b, "[%s]", strings.Join(names, " "))
	}
	return b.String()
}
