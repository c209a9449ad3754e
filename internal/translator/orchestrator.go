package translator

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"translatex/internal/backend"
	"translatex/internal/chunk"
	"translatex/internal/logger"
	"translatex/internal/metrics"
	"translatex/internal/postprocess"
	"translatex/internal/types"
)

// Orchestrator translates finalized chunks one at a time, in order.
type Orchestrator struct {
	backend backend.Backend
	name    string
	opts    *Options
	post    *postprocess.Postprocessor
	metrics metrics.Recorder
}

// NewOrchestrator returns an orchestrator sending requests to b. The leaf
// rules of the destination language run on every translated leaf when
// opts.Postprocess is set.
func NewOrchestrator(b backend.Backend, opts *Options) *Orchestrator {
	o := &Orchestrator{
		backend: b,
		name:    backend.NameOf(b),
		opts:    opts,
		metrics: opts.recorder(),
	}
	if opts.Postprocess {
		o.post = postprocess.ForLanguage(opts.DestLang)
	}
	return o
}

// run holds the state of one TranslateChunks call.
type run struct {
	report types.Report
}

// TranslateChunks translates every chunk and writes the result into the
// leaves they reference. A backend error stops the run unless
// SkipFailedChunks is set, in which case the chunk keeps its original text.
// The report is valid even when an error is returned.
func (o *Orchestrator) TranslateChunks(ctx context.Context, chunks []*chunk.Chunk) (types.Report, error) {
	r := &run{}
	total := len(chunks)
	r.report.Chunks = total

	logger.Info("starting chunk translation",
		logger.Int("chunks", total),
		logger.String("backend", o.name),
		logger.String("sourceLang", o.opts.SourceLang),
		logger.String("destLang", o.opts.DestLang))

	for i, c := range chunks {
		logger.Debug("translating chunk", logger.Int("chunkIndex", i+1), logger.Int("totalChunks", total))

		if err := o.translate(ctx, r, c, 0); err != nil {
			if ctx.Err() != nil || !o.opts.SkipFailedChunks {
				logger.Error("chunk translation failed", err, logger.Int("chunkIndex", i+1))
				return r.report, types.NewAppErrorWithDetails(types.ErrBackend,
					"translation request failed", fmt.Sprintf("chunk %d of %d", i+1, total), err)
			}
			logger.Warn("skipping failed chunk", logger.Int("chunkIndex", i+1), logger.Err(err))
			r.report.FailedChunks++
			r.report.Warnings = append(r.report.Warnings, types.Issue{
				Code:     types.ErrBackend,
				Location: location(c),
				Message:  err.Error(),
			})
		}

		if o.opts.Progress != nil {
			o.opts.Progress(i+1, total, fmt.Sprintf("translated chunk %d/%d", i+1, total))
		}
	}

	logger.Info("chunk translation completed",
		logger.Int("requests", r.report.Requests),
		logger.Int("bisections", r.report.Bisections),
		logger.Int("translatedLeaves", r.report.TranslatedLeaves),
		logger.Int("untranslatedLeaves", r.report.UntranslatedLeaves),
		logger.Int("failedChunks", r.report.FailedChunks))
	return r.report, nil
}

// translate sends c and writes the reply back. A reply whose markers do
// not line up is repaired by cutting c at the first damaged marker and
// translating both halves on their own; a single leaf, or a chunk at the
// depth limit, keeps its original text.
func (o *Orchestrator) translate(ctx context.Context, r *run, c *chunk.Chunk, depth int) error {
	p := c.Serialize()
	chars := utf8.RuneCountInString(p.Text)

	start := time.Now()
	reply, err := o.backend.Translate(ctx, p.Text, o.opts.SourceLang, o.opts.DestLang)
	o.metrics.BackendRequest(o.name, chars, time.Since(start), err)
	r.report.Requests++
	r.report.CharsSent += chars
	if err != nil {
		r.report.UntranslatedLeaves += len(p.Leaves)
		o.metrics.Leaves(0, len(p.Leaves))
		return err
	}

	parts, ids := chunk.Recover(reply)
	k, aligned := divergence(p.StubIDs, ids, len(parts), len(p.Leaves))
	if aligned {
		for i, leaf := range p.Leaves {
			leaf.Text = p.Restore(i, parts[i], o.leafTransform())
		}
		r.report.TranslatedLeaves += len(p.Leaves)
		o.metrics.Leaves(len(p.Leaves), 0)
		return nil
	}

	if len(c.Tokens) == 1 || depth >= o.opts.MaxRepairDepth {
		loc := location(c)
		logger.Warn("translation markers could not be matched, keeping original text",
			logger.String("location", loc),
			logger.Int("expectedParts", len(p.Leaves)),
			logger.Int("gotParts", len(parts)),
			logger.Int("depth", depth))
		r.report.UntranslatedLeaves += len(p.Leaves)
		r.report.Warnings = append(r.report.Warnings, types.Issue{
			Code:     types.ErrAlignment,
			Location: loc,
			Message:  fmt.Sprintf("expected %d parts, got %d", len(p.Leaves), len(parts)),
		})
		o.metrics.Leaves(0, len(p.Leaves))
		return nil
	}

	left, right := c.SplitByToken(2*k + 1)
	r.report.Bisections++
	o.metrics.Bisection()
	logger.Warn("translation markers damaged, splitting chunk",
		logger.Int("stubIndex", k),
		logger.Int("tokens", len(c.Tokens)),
		logger.Int("depth", depth))

	if err := o.translate(ctx, r, left, depth+1); err != nil {
		skipped := right.Leaves()
		r.report.UntranslatedLeaves += skipped
		o.metrics.Leaves(0, skipped)
		return err
	}
	return o.translate(ctx, r, right, depth+1)
}

func (o *Orchestrator) leafTransform() func(string) string {
	if o.post == nil {
		return nil
	}
	return o.post.Leaf
}

// divergence compares the stub ids sent with those recovered from the
// reply. It reports whether they line up and otherwise the index of the
// first stub that differs, clamped to the stubs that were sent.
func divergence(sent, got []int, parts, leaves int) (int, bool) {
	if parts == leaves && len(sent) == len(got) {
		same := true
		for i := range sent {
			if sent[i] != got[i] {
				same = false
				break
			}
		}
		if same {
			return 0, true
		}
	}

	k := 0
	for k < len(sent) && k < len(got) && sent[k] == got[k] {
		k++
	}
	if k >= len(sent) {
		k = len(sent) - 1
	}
	if k < 0 {
		k = 0
	}
	return k, false
}

// location describes where c starts, for warnings meant for a reader of
// the source.
func location(c *chunk.Chunk) string {
	for _, t := range c.Tokens {
		if t.IsLeaf() {
			s := strings.Join(strings.Fields(t.Leaf.Text), " ")
			if utf8.RuneCountInString(s) > 40 {
				s = string([]rune(s)[:40]) + "..."
			}
			return fmt.Sprintf("near %q", s)
		}
	}
	return ""
}
