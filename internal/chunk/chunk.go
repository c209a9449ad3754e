// Package chunk turns classified LaTeX leaves into translation requests.
// A chunk alternates translatable character runs with opaque stub markers;
// the markers let the translated text be cut back into per-leaf pieces.
package chunk

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"translatex/internal/latex"
	"translatex/internal/logger"
)

// IDAllocator hands out stub ids for one translation run.
type IDAllocator struct {
	next int
}

// NewIDAllocator returns an allocator whose first id is 1.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: 1}
}

// Next returns a fresh id.
func (a *IDAllocator) Next() int {
	id := a.next
	a.next++
	return id
}

// Peek returns the id Next would return, without consuming it.
func (a *IDAllocator) Peek() int {
	return a.next
}

// StubKind says what a stub stands for. Higher kinds are more specific and
// win when adjacent stubs are collapsed.
type StubKind int

const (
	// KindToken separates two leaves that had no stub between them.
	KindToken StubKind = iota
	// KindMerge stands for a subtree with nothing to translate.
	KindMerge
	// KindBoundary stands for a subtree translated as its own chunk.
	KindBoundary
	// KindChunk joins two chunks packed into one request.
	KindChunk
)

// String returns the stub kind name.
func (k StubKind) String() string {
	switch k {
	case KindToken:
		return "token"
	case KindMerge:
		return "merge"
	case KindBoundary:
		return "boundary"
	case KindChunk:
		return "chunk"
	default:
		return "unknown"
	}
}

// Stub is an opaque marker with a run-unique id.
type Stub struct {
	Kind StubKind
	ID   int
}

// Marker returns the text sent to the backend for s.
func (s Stub) Marker() string {
	return marker(s.Kind, s.ID)
}

// Token is either a leaf (Leaf != nil) or a stub.
type Token struct {
	Leaf *latex.Chars
	Stub Stub
}

// IsLeaf reports whether t refers to a character run.
func (t Token) IsLeaf() bool { return t.Leaf != nil }

// Size is the number of characters t contributes to a request.
func (t Token) Size() int {
	if t.IsLeaf() {
		return utf8.RuneCountInString(sentForm(t.Leaf.Text))
	}
	return utf8.RuneCountInString(t.Stub.Marker())
}

// Chunk is an ordered token sequence translated in one request.
type Chunk struct {
	Tokens []Token
}

// AppendLeaf appends a character run.
func (c *Chunk) AppendLeaf(leaf *latex.Chars) {
	c.Tokens = append(c.Tokens, Token{Leaf: leaf})
}

// AppendStub appends an opaque marker.
func (c *Chunk) AppendStub(kind StubKind, id int) {
	c.Tokens = append(c.Tokens, Token{Stub: Stub{Kind: kind, ID: id}})
}

// Empty reports whether c has no tokens.
func (c *Chunk) Empty() bool { return len(c.Tokens) == 0 }

// Leaves returns the number of leaf tokens.
func (c *Chunk) Leaves() int {
	n := 0
	for _, t := range c.Tokens {
		if t.IsLeaf() {
			n++
		}
	}
	return n
}

// Stubs returns the stubs of c in order.
func (c *Chunk) Stubs() []Stub {
	var out []Stub
	for _, t := range c.Tokens {
		if !t.IsLeaf() {
			out = append(out, t.Stub)
		}
	}
	return out
}

// EstimatedSize is the length in characters of the serialized chunk.
func (c *Chunk) EstimatedSize() int {
	n := 0
	for _, t := range c.Tokens {
		n += t.Size()
	}
	return n
}

// Alternates reports whether c has the finalized shape leaf, stub, leaf,
// ..., leaf.
func (c *Chunk) Alternates() bool {
	if len(c.Tokens)%2 == 0 {
		return false
	}
	for i, t := range c.Tokens {
		if t.IsLeaf() != (i%2 == 0) {
			return false
		}
	}
	return true
}

// SplitIfLarge halves c until every piece is under maxSize. A piece with a
// single token cannot be split and is returned as is with a warning. The
// stub at each cut is dropped, so both halves start and end on a leaf.
func (c *Chunk) SplitIfLarge(maxSize int) []*Chunk {
	size := c.EstimatedSize()
	if size < maxSize {
		return []*Chunk{c}
	}
	if len(c.Tokens) < 2 {
		logger.Warn("cannot split chunk, it is too big",
			logger.Int("size", size), logger.Int("max", maxSize))
		return []*Chunk{c}
	}

	mid := len(c.Tokens) / 2
	if mid%2 == 1 {
		mid++
	}
	logger.Debug("splitting chunk", logger.Int("size", size), logger.Int("tokens", len(c.Tokens)))
	cut := mid - 1
	left := &Chunk{Tokens: c.Tokens[:cut:cut]}
	right := &Chunk{Tokens: c.Tokens[mid:]}
	return append(left.SplitIfLarge(maxSize), right.SplitIfLarge(maxSize)...)
}

// SplitByToken cuts c at index i, dropping the token there.
func (c *Chunk) SplitByToken(i int) (*Chunk, *Chunk) {
	return &Chunk{Tokens: c.Tokens[:i:i]}, &Chunk{Tokens: c.Tokens[i+1:]}
}

// String renders the chunk for inspection, tokens joined by <|>.
func (c *Chunk) String() string {
	parts := make([]string, len(c.Tokens))
	for i, t := range c.Tokens {
		if t.IsLeaf() {
			parts[i] = fmt.Sprintf("%q", t.Leaf.Text)
		} else {
			parts[i] = fmt.Sprintf("[%s %d]", t.Stub.Kind, t.Stub.ID)
		}
	}
	return strings.Join(parts, "<|>")
}

// Payload is a serialized chunk together with what is needed to write the
// translation back.
type Payload struct {
	Text    string
	Leaves  []*latex.Chars
	Before  []string
	After   []string
	// Breaks holds the paragraph breaks hidden in each leaf.
	Breaks  [][]string
	StubIDs []int
}

// Serialize builds the request text. Leading and trailing whitespace of
// every leaf is recorded and replaced by at most one space; blank lines
// inside a leaf become a placeholder.
func (c *Chunk) Serialize() *Payload {
	p := &Payload{}
	var b strings.Builder
	for _, t := range c.Tokens {
		if !t.IsLeaf() {
			p.StubIDs = append(p.StubIDs, t.Stub.ID)
			b.WriteString(t.Stub.Marker())
			continue
		}
		before, core, after := splitSpace(t.Leaf.Text)
		_, breaks := EncodeParagraphs(core)
		p.Leaves = append(p.Leaves, t.Leaf)
		p.Before = append(p.Before, before)
		p.After = append(p.After, after)
		p.Breaks = append(p.Breaks, breaks)
		b.WriteString(sentForm(t.Leaf.Text))
	}
	p.Text = b.String()
	return p
}

// Restore turns a translated part into the final text of leaf i, with
// transform applied to the trimmed core. transform may be nil.
func (p *Payload) Restore(i int, part string, transform func(string) string) string {
	core := RestoreParagraphs(strings.TrimSpace(part), p.Breaks[i])
	if transform != nil {
		core = transform(core)
	}
	return p.Before[i] + core + p.After[i]
}

// splitSpace separates the leading and trailing whitespace of s.
func splitSpace(s string) (before, core, after string) {
	trimmedLeft := strings.TrimLeftFunc(s, unicode.IsSpace)
	if trimmedLeft == "" {
		return s, "", ""
	}
	core = strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)
	before = s[:len(s)-len(trimmedLeft)]
	after = trimmedLeft[len(core):]
	return before, core, after
}

// sentForm is the text a leaf contributes to a request.
func sentForm(s string) string {
	before, core, after := splitSpace(s)
	var b strings.Builder
	if before != "" {
		b.WriteByte(' ')
	}
	encoded, _ := EncodeParagraphs(core)
	b.WriteString(encoded)
	if after != "" {
		b.WriteByte(' ')
	}
	return b.String()
}
