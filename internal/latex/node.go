// Package latex holds a small LaTeX node tree: enough structure for the
// translator to tell prose from markup, and a byte-exact unparser so an
// untouched tree prints back to its source.
package latex

import "strings"

// Kind identifies the variant of a Node.
type Kind int

const (
	KindChars Kind = iota
	KindComment
	KindSpecials
	KindMacro
	KindEnvironment
	KindGroup
	KindMath
)

var kindNames = map[Kind]string{
	KindChars:       "chars",
	KindComment:     "comment",
	KindSpecials:    "specials",
	KindMacro:       "macro",
	KindEnvironment: "environment",
	KindGroup:       "group",
	KindMath:        "math",
}

// String returns the lower-case kind name used in rule files.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Node is one element of a parsed LaTeX document.
type Node interface {
	Kind() Kind
	// NodeName is the identifying name rules match against: the macro or
	// environment name, the opening delimiter of groups and math, or the
	// raw text of character runs, comments and specials.
	NodeName() string
	write(b *strings.Builder)
}

// Chars is a run of plain text. It is the only node whose content the
// translator rewrites.
type Chars struct {
	Text string
}

// Comment is a % comment. Text excludes the % and the line break.
type Comment struct {
	Text string
}

// Specials is an active character such as & or ~.
type Specials struct {
	Chars string
}

// Macro is a control sequence with its parsed arguments.
type Macro struct {
	Name string
	Star bool
	// PostSpace is the blank space TeX swallows after a letter-named macro.
	PostSpace string
	Args      []*Group
	// Verbatim holds the delimited body of \verb-like macros.
	Verbatim string
}

// Environment is a \begin{name}...\end{name} block.
type Environment struct {
	Name     string
	Begin    string
	End      string
	Args     []*Group
	Children []Node
}

// Group is a braced group or a macro/environment argument. Pre holds the
// whitespace between the previous token and the opening delimiter.
type Group struct {
	Open     string
	Close    string
	Pre      string
	Children []Node
}

// Math is inline or display math delimited by $, $$, \( or \[.
type Math struct {
	Open     string
	Close    string
	Children []Node
}

func (*Chars) Kind() Kind       { return KindChars }
func (*Comment) Kind() Kind     { return KindComment }
func (*Specials) Kind() Kind    { return KindSpecials }
func (*Macro) Kind() Kind       { return KindMacro }
func (*Environment) Kind() Kind { return KindEnvironment }
func (*Group) Kind() Kind       { return KindGroup }
func (*Math) Kind() Kind        { return KindMath }

func (n *Chars) NodeName() string       { return n.Text }
func (n *Comment) NodeName() string     { return n.Text }
func (n *Specials) NodeName() string    { return n.Chars }
func (n *Macro) NodeName() string       { return n.Name }
func (n *Environment) NodeName() string { return n.Name }
func (n *Group) NodeName() string       { return n.Open }
func (n *Math) NodeName() string        { return n.Open }

func (n *Chars) write(b *strings.Builder) { b.WriteString(n.Text) }

func (n *Comment) write(b *strings.Builder) {
	b.WriteByte('%')
	b.WriteString(n.Text)
}

func (n *Specials) write(b *strings.Builder) { b.WriteString(n.Chars) }

func (n *Macro) write(b *strings.Builder) {
	b.WriteByte('\\')
	b.WriteString(n.Name)
	if n.Star {
		b.WriteByte('*')
	}
	b.WriteString(n.Verbatim)
	b.WriteString(n.PostSpace)
	for _, a := range n.Args {
		a.write(b)
	}
}

func (n *Environment) write(b *strings.Builder) {
	b.WriteString(n.Begin)
	for _, a := range n.Args {
		a.write(b)
	}
	writeNodes(b, n.Children)
	b.WriteString(n.End)
}

func (n *Group) write(b *strings.Builder) {
	b.WriteString(n.Pre)
	b.WriteString(n.Open)
	writeNodes(b, n.Children)
	b.WriteString(n.Close)
}

func (n *Math) write(b *strings.Builder) {
	b.WriteString(n.Open)
	writeNodes(b, n.Children)
	b.WriteString(n.Close)
}

func writeNodes(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		n.write(b)
	}
}

// String renders a single node back to LaTeX.
func String(n Node) string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

// Text concatenates the rendered nodes.
func Text(nodes []Node) string {
	var b strings.Builder
	writeNodes(&b, nodes)
	return b.String()
}

// Children returns the direct descendants of n in source order: arguments
// first, then body nodes.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *Macro:
		return groupsAsNodes(v.Args)
	case *Environment:
		return append(groupsAsNodes(v.Args), v.Children...)
	case *Group:
		return v.Children
	case *Math:
		return v.Children
	}
	return nil
}

func groupsAsNodes(gs []*Group) []Node {
	if len(gs) == 0 {
		return nil
	}
	out := make([]Node, len(gs))
	for i, g := range gs {
		out[i] = g
	}
	return out
}

// Document is the root of a parsed source file.
type Document struct {
	Nodes []Node
}

// String renders the document. For a tree returned by Parse and not
// modified since, the result equals the parsed source.
func (d *Document) String() string {
	return Text(d.Nodes)
}

// Find returns the first top-level environment with the given name.
func (d *Document) Find(name string) *Environment {
	for _, n := range d.Nodes {
		if env, ok := n.(*Environment); ok && env.Name == name {
			return env
		}
	}
	return nil
}

// Insert places nodes before position i of the top-level node list.
func (d *Document) Insert(i int, nodes ...Node) {
	if i < 0 {
		i = 0
	}
	if i > len(d.Nodes) {
		i = len(d.Nodes)
	}
	d.Nodes = append(d.Nodes[:i], append(nodes, d.Nodes[i:]...)...)
}

// WalkFunc is called for every node with the chain of its ancestors.
// Returning false skips the node's descendants.
type WalkFunc func(n Node, path []Node) bool

// Walk visits nodes depth-first in source order.
func Walk(nodes []Node, fn WalkFunc) {
	walk(nodes, nil, fn)
}

func walk(nodes []Node, path []Node, fn WalkFunc) {
	for _, n := range nodes {
		if !fn(n, path) {
			continue
		}
		if kids := Children(n); len(kids) > 0 {
			walk(kids, append(path[:len(path):len(path)], n), fn)
		}
	}
}
