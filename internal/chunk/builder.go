package chunk

import (
	"fmt"
	"strings"

	"translatex/internal/classify"
	"translatex/internal/latex"
	"translatex/internal/logger"
	"translatex/internal/types"
)

// Stats counts what the builder saw.
type Stats struct {
	TranslatedLeaves int `json:"translated_leaves"`
	ExcludedLeaves   int `json:"excluded_leaves"`
	Gaps             int `json:"classification_gaps"`
}

// LeafDecision records why a character run was or was not sent.
type LeafDecision struct {
	Path     string
	Text     string
	Decision classify.Decision
	Sent     bool
}

// BuildResult is the output of Build.
type BuildResult struct {
	Chunks []*Chunk
	Stats  Stats
	// Leaves is only filled when the builder was created WithAudit.
	Leaves []LeafDecision
	Issues []types.Issue
}

// Builder walks a document and collects chunks.
type Builder struct {
	classifier *classify.Classifier
	ids        *IDAllocator
	audit      bool

	result   *BuildResult
	seenGaps map[string]bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithAudit records a LeafDecision for every character run visited.
func WithAudit() Option {
	return func(b *Builder) { b.audit = true }
}

// NewBuilder returns a builder using c for classification and ids for stubs.
func NewBuilder(c *classify.Classifier, ids *IDAllocator, opts ...Option) *Builder {
	b := &Builder{classifier: c, ids: ids}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build walks doc depth-first. Each group, environment or math span that
// is not stopped becomes its own chunk; the enclosing chunk receives a
// boundary stub for it, or a merge stub when it held nothing to translate.
//
// Without a top-level document environment the tree is treated as a
// fragment and translated from the root.
func (b *Builder) Build(doc *latex.Document) *BuildResult {
	b.result = &BuildResult{}
	b.seenGaps = map[string]bool{}

	root := classify.Opaque
	if doc.Find("document") == nil {
		root = classify.Translate
	}

	rootChunk := &Chunk{}
	for _, n := range doc.Nodes {
		b.walk(n, nil, root, rootChunk)
	}
	if rootChunk.Leaves() > 0 {
		b.register(rootChunk)
	}

	logger.Info("parsed latex text",
		logger.Int("leavesToTranslate", b.result.Stats.TranslatedLeaves),
		logger.Int("leavesNotToTranslate", b.result.Stats.ExcludedLeaves),
		logger.Int("chunks", len(b.result.Chunks)),
		logger.Int("classificationGaps", b.result.Stats.Gaps))
	return b.result
}

func (b *Builder) register(c *Chunk) {
	b.result.Chunks = append(b.result.Chunks, c)
}

func (b *Builder) walk(n latex.Node, path []latex.Node, inherited classify.Decision, cur *Chunk) {
	res := b.classifier.Decide(n, path, inherited)
	if res.Gap {
		b.recordGap(n, path)
	}

	if leaf, ok := n.(*latex.Chars); ok {
		sent := res.Decision == classify.Translate && b.classifier.Accept(leaf.Text)
		if sent {
			cur.AppendLeaf(leaf)
			b.result.Stats.TranslatedLeaves++
		} else {
			b.result.Stats.ExcludedLeaves++
		}
		if b.audit {
			b.result.Leaves = append(b.result.Leaves, LeafDecision{
				Path:     describePath(path),
				Text:     leaf.Text,
				Decision: res.Decision,
				Sent:     sent,
			})
		}
		return
	}

	if res.Decision == classify.Stop {
		return
	}

	childPath := append(path[:len(path):len(path)], n)
	switch v := n.(type) {
	case *latex.Macro:
		for _, arg := range v.Args {
			b.walk(arg, childPath, res.Decision, cur)
		}
	case *latex.Environment, *latex.Group, *latex.Math:
		child := &Chunk{}
		for _, kid := range latex.Children(v) {
			b.walk(kid, childPath, res.Decision, child)
		}
		if child.Leaves() == 0 {
			cur.AppendStub(KindMerge, b.ids.Next())
			return
		}
		cur.AppendStub(KindBoundary, b.ids.Next())
		b.register(child)
	}
}

func (b *Builder) recordGap(n latex.Node, path []latex.Node) {
	b.result.Stats.Gaps++
	key := n.Kind().String() + ":" + n.NodeName()
	if b.seenGaps[key] {
		return
	}
	b.seenGaps[key] = true
	logger.Debug("no rule can be applied", logger.String("node", describe(n)),
		logger.String("path", describePath(path)))
	b.result.Issues = append(b.result.Issues, types.Issue{
		Code:     types.ErrClassificationGap,
		Location: describePath(append(path[:len(path):len(path)], n)),
		Message:  fmt.Sprintf("no rule matches %s; decision inherited", describe(n)),
	})
}

// describe renders a node for logs and audits.
func describe(n latex.Node) string {
	switch v := n.(type) {
	case *latex.Chars:
		return fmt.Sprintf("chars[%s]", v.Text)
	case *latex.Group:
		return fmt.Sprintf("group[%s...%s]", v.Open, v.Close)
	case *latex.Math:
		return fmt.Sprintf("math[%s...%s]", v.Open, v.Close)
	case *latex.Macro:
		return `\` + v.Name
	case *latex.Environment:
		return "env[" + v.Name + "]"
	default:
		return n.Kind().String()
	}
}

func describePath(path []latex.Node) string {
	if len(path) == 0 {
		return "$"
	}
	parts := make([]string, len(path))
	for i, n := range path {
		parts[i] = describe(n)
	}
	return "$ " + strings.Join(parts, " -> ")
}
