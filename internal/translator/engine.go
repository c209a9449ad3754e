package translator

import (
	"context"
	"strings"
	"sync"

	"translatex/internal/chunk"
	"translatex/internal/classify"
	"translatex/internal/lang"
	"translatex/internal/latex"
	"translatex/internal/logger"
	"translatex/internal/postprocess"
	"translatex/internal/types"
)

// Engine translates whole LaTeX documents: parse, build chunks, finalize,
// translate, add the babel package, postprocess and unparse. An Engine can
// serve concurrent calls; every call owns its tree and stub ids.
type Engine struct {
	opts *Options

	once       sync.Once
	classifier *classify.Classifier
	loadErr    error
}

// NewEngine returns an engine for opts. Options are validated on first use.
func NewEngine(opts *Options) *Engine {
	return &Engine{opts: opts}
}

// Plan is a parsed document split into the requests that would be sent.
type Plan struct {
	SourceLang string
	DestLang   string
	Doc        *latex.Document
	Build      *chunk.BuildResult
	Chunks     []*chunk.Chunk
	// Issues holds the classification gaps and oversize leaves.
	Issues []types.Issue
}

// Prepare parses source and builds its finalized chunks without calling
// the backend.
func (e *Engine) Prepare(source string) (*Plan, error) {
	src, dst, err := e.validate()
	if err != nil {
		return nil, err
	}
	c, err := e.loadClassifier()
	if err != nil {
		return nil, err
	}

	doc, err := latex.Parse(source)
	if err != nil {
		logger.Error("failed to parse latex source", err, logger.Int("contentLength", len(source)))
		return nil, err
	}

	ids := chunk.NewIDAllocator()
	var bopts []chunk.Option
	if e.opts.Audit {
		bopts = append(bopts, chunk.WithAudit())
	}
	built := chunk.NewBuilder(c, ids, bopts...).Build(doc)

	fin := chunk.NewFinalizer(e.opts.MaxRequestSize, ids)
	chunks := fin.Finalize(built.Chunks)

	issues := append([]types.Issue{}, built.Issues...)
	issues = append(issues, fin.Issues()...)
	return &Plan{
		SourceLang: src,
		DestLang:   dst,
		Doc:        doc,
		Build:      built,
		Chunks:     chunks,
		Issues:     issues,
	}, nil
}

// TranslateDocument translates source and returns the new LaTeX text with a
// report of the run.
func (e *Engine) TranslateDocument(ctx context.Context, source string) (*types.TranslationResult, error) {
	logger.Info("starting LaTeX translation", logger.Int("contentLength", len(source)))

	if strings.TrimSpace(source) == "" {
		logger.Debug("empty content, returning empty result")
		if _, _, err := e.validate(); err != nil {
			return nil, err
		}
		return &types.TranslationResult{OriginalContent: source, TranslatedContent: source}, nil
	}

	plan, err := e.Prepare(source)
	if err != nil {
		return nil, err
	}

	opts := e.opts.withLanguages(plan.SourceLang, plan.DestLang)
	report, err := NewOrchestrator(opts.Backend, opts).TranslateChunks(ctx, plan.Chunks)
	if err != nil {
		return nil, err
	}
	report.Warnings = append(plan.Issues, report.Warnings...)

	lang.EnsureBabel(plan.Doc, plan.DestLang)
	out := plan.Doc.String()
	if opts.Postprocess {
		out = postprocess.ForLanguage(plan.DestLang).Document(out)
	}

	logger.Info("LaTeX translation completed",
		logger.Int("originalLength", len(source)),
		logger.Int("translatedLength", len(out)),
		logger.Int("warnings", len(report.Warnings)))
	return &types.TranslationResult{
		OriginalContent:   source,
		TranslatedContent: out,
		Report:            report,
	}, nil
}

// validate checks the language pair before the remaining options so an
// unknown or repeated language surfaces as invalid input.
func (e *Engine) validate() (string, string, error) {
	if e.opts == nil {
		return "", "", ValidateOptions(nil).Err()
	}
	src, dst, err := lang.Validate(e.opts.SourceLang, e.opts.DestLang)
	if err != nil {
		return "", "", err
	}
	if err := ValidateOptions(e.opts).Err(); err != nil {
		return "", "", err
	}
	return src, dst, nil
}

// loadClassifier resolves the rules once per engine.
func (e *Engine) loadClassifier() (*classify.Classifier, error) {
	e.once.Do(func() {
		e.classifier, e.loadErr = ResolveClassifier(e.opts)
	})
	return e.classifier, e.loadErr
}

// ResolveClassifier returns opts.Classifier if set, otherwise the default
// rules extended by opts.RulesFile with the MinLetters post-filter. A
// min_letters value in the rule file wins over the option.
func ResolveClassifier(opts *Options) (*classify.Classifier, error) {
	if opts.Classifier != nil {
		return opts.Classifier, nil
	}
	base := classify.DefaultClassifier()
	base.Filter = classify.MinLetters(opts.MinLetters)
	if opts.RulesFile == "" {
		return base, nil
	}
	return classify.LoadRulesOnto(opts.RulesFile, base)
}
