package latex

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"translatex/internal/types"
)

// Parse builds a node tree from LaTeX source. It understands groups,
// environments, math, comments, macros with the argument signatures in
// signatures.go, and verbatim bodies. Anything else is plain text.
func Parse(src string) (*Document, error) {
	p := &parser{src: src}
	nodes, err := p.parseNodes(closer{})
	if err != nil {
		return nil, err
	}
	return &Document{Nodes: nodes}, nil
}

// closer describes what ends the node list being parsed.
type closer struct {
	// delim is a literal closing delimiter: "}", "]", "$", "$$", "\\)" or "\\]".
	delim string
	// env is set when parsing an environment body.
	env string
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(pos int, format string, args ...interface{}) error {
	line := strings.Count(p.src[:pos], "\n") + 1
	return types.NewAppErrorWithDetails(types.ErrParse, fmt.Sprintf(format, args...),
		fmt.Sprintf("line %d", line), nil)
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek(s string) bool { return strings.HasPrefix(p.src[p.pos:], s) }

// parseNodes reads nodes until end (or end of input when end is empty).
// The closing delimiter is consumed.
func (p *parser) parseNodes(end closer) ([]Node, error) {
	var nodes []Node
	start := p.pos
	for {
		if p.eof() {
			if end.delim != "" || end.env != "" {
				want := end.delim
				if end.env != "" {
					want = `\end{` + end.env + `}`
				}
				return nil, p.errorf(start, "missing %s", want)
			}
			return nodes, nil
		}
		if end.delim != "" && p.peek(end.delim) {
			p.pos += len(end.delim)
			return nodes, nil
		}

		c := p.src[p.pos]
		switch {
		case c == '%':
			nodes = append(nodes, p.parseComment())
		case c == '\\':
			if p.peek(`\end`) && !isLetterAt(p.src, p.pos+4) {
				at := p.pos
				name, raw, ok := p.parseEnvName(p.pos + 4)
				if !ok {
					return nil, p.errorf(at, `malformed \end`)
				}
				if name != end.env {
					if end.env == "" {
						return nil, p.errorf(at, `unexpected \end{%s}`, name)
					}
					return nil, p.errorf(at, `\end{%s} does not match \begin{%s}`, name, end.env)
				}
				p.pos = at + 4 + len(raw)
				return nodes, &endMarker{raw: `\end` + raw}
			}
			n, err := p.parseBackslash()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case c == '{':
			g, err := p.parseGroup("", "{", "}")
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, g)
		case c == '}':
			return nil, p.errorf(p.pos, "unmatched }")
		case c == '$':
			m, err := p.parseDollarMath()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, m)
		case c == '&' || c == '~':
			nodes = append(nodes, &Specials{Chars: string(c)})
			p.pos++
		default:
			nodes = append(nodes, p.parseChars(end))
		}
	}
}

// endMarker carries the raw \end{...} text out of parseNodes.
type endMarker struct{ raw string }

func (e *endMarker) Error() string { return "end of environment" }

func (p *parser) parseChars(end closer) *Chars {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '\\' || c == '{' || c == '}' || c == '$' || c == '%' || c == '&' || c == '~' {
			break
		}
		if end.delim == "]" && c == ']' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		p.pos++
	}
	return &Chars{Text: p.src[start:p.pos]}
}

func (p *parser) parseComment() *Comment {
	start := p.pos + 1
	end := strings.IndexByte(p.src[start:], '\n')
	if end < 0 {
		p.pos = len(p.src)
	} else {
		p.pos = start + end
	}
	return &Comment{Text: p.src[start:p.pos]}
}

func (p *parser) parseGroup(pre, open, close string) (*Group, error) {
	p.pos += len(open)
	children, err := p.parseNodes(closer{delim: close})
	if err != nil {
		return nil, err
	}
	return &Group{Open: open, Close: close, Pre: pre, Children: children}, nil
}

func (p *parser) parseDollarMath() (*Math, error) {
	open := "$"
	if p.peek("$$") {
		open = "$$"
	}
	return p.parseMath(open, open)
}

func (p *parser) parseMath(open, close string) (*Math, error) {
	at := p.pos
	p.pos += len(open)
	children, err := p.parseNodes(closer{delim: close})
	if err != nil {
		if ae, ok := err.(*types.AppError); ok && strings.HasPrefix(ae.Message, "missing") {
			return nil, p.errorf(at, "unterminated math %s", open)
		}
		return nil, err
	}
	return &Math{Open: open, Close: close, Children: children}, nil
}

// parseBackslash handles everything that starts with a backslash except \end.
func (p *parser) parseBackslash() (Node, error) {
	at := p.pos
	if at+1 >= len(p.src) {
		return nil, p.errorf(at, "trailing backslash")
	}

	switch p.src[at+1] {
	case '(':
		return p.parseMath(`\(`, `\)`)
	case '[':
		return p.parseMath(`\[`, `\]`)
	case ')', ']':
		return nil, p.errorf(at, "unexpected %s", p.src[at:at+2])
	}

	if !isLetterAt(p.src, at+1) {
		// control symbol such as \%, \\ or \,
		_, width := utf8.DecodeRuneInString(p.src[at+1:])
		p.pos = at + 1 + width
		m := &Macro{Name: p.src[at+1 : p.pos]}
		if m.Name == `\` {
			if p.peek("*") {
				m.Star = true
				p.pos++
			}
			args, err := p.parseArgs("[")
			if err != nil {
				return nil, err
			}
			m.Args = args
		}
		return m, nil
	}

	nameEnd := at + 1
	for isLetterAt(p.src, nameEnd) {
		nameEnd++
	}
	name := p.src[at+1 : nameEnd]
	p.pos = nameEnd

	if name == "begin" {
		return p.parseEnvironment(at)
	}

	m := &Macro{Name: name}
	if p.peek("*") {
		m.Star = true
		p.pos++
	}

	if verbatimMacros[name] && p.pos < len(p.src) {
		delim := p.src[p.pos]
		if delim == '{' {
			g, err := p.parseGroup("", "{", "}")
			if err != nil {
				return nil, err
			}
			m.Args = []*Group{g}
			return m, nil
		}
		closeAt := strings.IndexByte(p.src[p.pos+1:], delim)
		if closeAt < 0 {
			return nil, p.errorf(at, `unterminated \%s`, name)
		}
		m.Verbatim = p.src[p.pos : p.pos+closeAt+2]
		p.pos += closeAt + 2
		return m, nil
	}

	m.PostSpace = p.readSpace()
	args, err := p.parseArgs(macroSignatures[name])
	if err != nil {
		return nil, err
	}
	m.Args = args
	return m, nil
}

// readSpace consumes spaces and tabs.
func (p *parser) readSpace() string {
	start := p.pos
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
	return p.src[start:p.pos]
}

// parseArgs reads arguments following sig. Optional arguments must follow
// immediately; mandatory ones may be preceded by blanks and a single line
// break. A missing mandatory argument ends argument parsing.
func (p *parser) parseArgs(sig string) ([]*Group, error) {
	var args []*Group
	for _, kind := range sig {
		switch kind {
		case '[':
			if !p.peek("[") {
				continue
			}
			g, err := p.parseGroup("", "[", "]")
			if err != nil {
				return nil, err
			}
			args = append(args, g)
		case '{':
			save := p.pos
			pre := p.readSpace()
			if p.peek("\n") && !p.peek("\n\n") {
				p.pos++
				pre += "\n" + p.readSpace()
			}
			if !p.peek("{") {
				p.pos = save
				return args, nil
			}
			g, err := p.parseGroup(pre, "{", "}")
			if err != nil {
				return nil, err
			}
			args = append(args, g)
		}
	}
	return args, nil
}

// parseEnvName reads "{name}" (with optional leading blanks) at from and
// returns the name and the raw text consumed.
func (p *parser) parseEnvName(from int) (name, raw string, ok bool) {
	i := from
	for i < len(p.src) && (p.src[i] == ' ' || p.src[i] == '\t') {
		i++
	}
	if i >= len(p.src) || p.src[i] != '{' {
		return "", "", false
	}
	closeAt := strings.IndexByte(p.src[i:], '}')
	if closeAt < 0 {
		return "", "", false
	}
	name = p.src[i+1 : i+closeAt]
	if name == "" || strings.ContainsAny(name, "{\\\n") {
		return "", "", false
	}
	return name, p.src[from : i+closeAt+1], true
}

func (p *parser) parseEnvironment(at int) (Node, error) {
	name, raw, ok := p.parseEnvName(p.pos)
	if !ok {
		return nil, p.errorf(at, `malformed \begin`)
	}
	p.pos += len(raw)

	env := &Environment{Name: name, Begin: `\begin` + raw}
	args, err := p.parseArgs(environmentSignatures[name])
	if err != nil {
		return nil, err
	}
	env.Args = args

	if verbatimEnvironments[name] {
		return p.parseVerbatimBody(at, env)
	}

	children, err := p.parseNodes(closer{env: name})
	if em, ok := err.(*endMarker); ok {
		env.Children = children
		env.End = em.raw
		return env, nil
	}
	if err == nil {
		// parseNodes only returns cleanly for an environment via endMarker
		err = p.errorf(at, `missing \end{%s}`, name)
	}
	return nil, err
}

func (p *parser) parseVerbatimBody(at int, env *Environment) (Node, error) {
	endTag := `\end{` + env.Name + `}`
	idx := strings.Index(p.src[p.pos:], endTag)
	if idx < 0 {
		return nil, p.errorf(at, "missing %s", endTag)
	}
	if idx > 0 {
		env.Children = []Node{&Chars{Text: p.src[p.pos : p.pos+idx]}}
	}
	env.End = endTag
	p.pos += idx + len(endTag)
	return env, nil
}

func isLetterAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	c := s[i]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '@'
}
