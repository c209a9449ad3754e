package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"translatex/internal/logger"
	"translatex/internal/types"
)

// Finalizer normalizes raw chunks into alternating form and packs them into
// requests under a size budget.
type Finalizer struct {
	maxSize int
	ids     *IDAllocator
	issues  []types.Issue
}

// NewFinalizer returns a finalizer for requests shorter than maxSize
// characters. Separators it inserts take ids from ids.
func NewFinalizer(maxSize int, ids *IDAllocator) *Finalizer {
	return &Finalizer{maxSize: maxSize, ids: ids}
}

// Finalize runs the three passes: stub normalization, removal of empty
// chunks, and packing. Every returned chunk alternates leaf and stub and
// is under the budget unless it is a single oversize leaf.
func (f *Finalizer) Finalize(chunks []*Chunk) []*Chunk {
	normalized := make([]*Chunk, 0, len(chunks))
	for _, c := range chunks {
		n := f.normalize(c)
		if n.Empty() {
			continue
		}
		normalized = append(normalized, n)
	}

	packed := f.pack(normalized)

	total := 0
	for _, c := range packed {
		size := c.EstimatedSize()
		total += size
		if size >= f.maxSize {
			f.oversize(c, size)
		}
	}
	logger.Info("chunks finalized",
		logger.Int("raw", len(chunks)),
		logger.Int("requests", len(packed)),
		logger.Int("totalSize", total))
	return packed
}

// Issues returns the problems found by Finalize.
func (f *Finalizer) Issues() []types.Issue {
	return f.issues
}

// normalize collapses runs of stubs into the most specific one, puts a
// token separator between adjacent leaves and trims stubs at both ends.
func (f *Finalizer) normalize(c *Chunk) *Chunk {
	out := make([]Token, 0, len(c.Tokens))
	for _, t := range c.Tokens {
		if !t.IsLeaf() {
			if len(out) == 0 {
				continue
			}
			if last := &out[len(out)-1]; !last.IsLeaf() {
				if t.Stub.Kind >= last.Stub.Kind {
					*last = t
				}
				continue
			}
			out = append(out, t)
			continue
		}
		if len(out) > 0 && out[len(out)-1].IsLeaf() {
			out = append(out, Token{Stub: Stub{Kind: KindToken, ID: f.ids.Next()}})
		}
		out = append(out, t)
	}
	if len(out) > 0 && !out[len(out)-1].IsLeaf() {
		out = out[:len(out)-1]
	}
	return &Chunk{Tokens: out}
}

// pack merges consecutive chunks while the result stays under the budget.
// Chunks at or over the budget are split first.
func (f *Finalizer) pack(chunks []*Chunk) []*Chunk {
	var packed []*Chunk
	var cur *Chunk
	curSize := 0

	for _, c := range chunks {
		for _, part := range c.SplitIfLarge(f.maxSize) {
			partSize := part.EstimatedSize()
			if cur == nil {
				cur, curSize = part, partSize
				continue
			}
			sepSize := utf8.RuneCountInString(marker(KindChunk, f.ids.Peek()))
			if curSize+sepSize+partSize < f.maxSize {
				tokens := make([]Token, 0, len(cur.Tokens)+1+len(part.Tokens))
				tokens = append(tokens, cur.Tokens...)
				tokens = append(tokens, Token{Stub: Stub{Kind: KindChunk, ID: f.ids.Next()}})
				tokens = append(tokens, part.Tokens...)
				cur = &Chunk{Tokens: tokens}
				curSize += sepSize + partSize
				continue
			}
			packed = append(packed, cur)
			cur, curSize = part, partSize
		}
	}
	if cur != nil {
		packed = append(packed, cur)
	}
	return packed
}

func (f *Finalizer) oversize(c *Chunk, size int) {
	preview := ""
	if len(c.Tokens) > 0 && c.Tokens[0].IsLeaf() {
		preview = strings.TrimSpace(c.Tokens[0].Leaf.Text)
		if utf8.RuneCountInString(preview) > 40 {
			preview = string([]rune(preview)[:40]) + "..."
		}
	}
	logger.Warn("chunk exceeds request size and cannot be split",
		logger.Int("size", size), logger.Int("max", f.maxSize), logger.String("text", preview))
	f.issues = append(f.issues, types.Issue{
		Code:     types.ErrOversizeLeaf,
		Location: preview,
		Message:  fmt.Sprintf("leaf of %d characters exceeds the request budget of %d", size, f.maxSize),
	})
}
