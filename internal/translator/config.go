// Package translator sends finalized chunks to a translation backend, repairs
// replies whose markers were damaged and writes the result back into the
// document tree.
package translator

import (
	"fmt"
	"strings"

	"translatex/internal/backend"
	"translatex/internal/classify"
	"translatex/internal/config"
	"translatex/internal/lang"
	"translatex/internal/metrics"
	"translatex/internal/types"
)

const (
	// MaxRequestSizeLimit is the largest accepted request budget
	MaxRequestSizeLimit = 100000
	// MinRequestSize leaves room for at least a chunk marker and some text
	MinRequestSize = 32
	// MaxRepairDepthLimit bounds the bisection recursion
	MaxRepairDepthLimit = 64
)

// TranslationProgressCallback is called during translation to report progress
type TranslationProgressCallback func(current, total int, message string)

// Options controls a translation run.
type Options struct {
	// Backend translates request text. Required.
	Backend backend.Backend

	SourceLang string
	DestLang   string

	// 分块设置 (Chunking Settings)
	MaxRequestSize int // 单次请求最大字符数
	MaxRepairDepth int // 二分修复最大深度

	// 过滤设置 (Filter Settings)
	MinLetters int    // 叶子最少字母数
	RulesFile  string // 额外的分类规则
	// Classifier overrides the default rules and RulesFile when set.
	Classifier *classify.Classifier

	// 失败策略 (Failure Policy)
	SkipFailedChunks bool

	Postprocess bool
	// Audit records a decision for every character run in the plan.
	Audit bool

	Metrics  metrics.Recorder
	Progress TranslationProgressCallback
}

// DefaultOptions returns options with the configuration defaults and the
// echo backend.
func DefaultOptions() *Options {
	return &Options{
		Backend:        backend.Echo{},
		SourceLang:     "en",
		DestLang:       "ru",
		MaxRequestSize: config.DefaultMaxRequestSize,
		MaxRepairDepth: config.DefaultMaxRepairDepth,
		MinLetters:     config.DefaultMinLetters,
		Postprocess:    true,
	}
}

// OptionsFromConfig copies the translation settings of cfg. The backend is
// left to the caller.
func OptionsFromConfig(cfg *types.Config, b backend.Backend) *Options {
	return &Options{
		Backend:          b,
		SourceLang:       cfg.SourceLang,
		DestLang:         cfg.DestLang,
		MaxRequestSize:   cfg.MaxRequestSize,
		MaxRepairDepth:   cfg.MaxRepairDepth,
		MinLetters:       cfg.MinLetters,
		RulesFile:        cfg.RulesFile,
		SkipFailedChunks: cfg.SkipFailedChunks,
		Postprocess:      cfg.Postprocess,
	}
}

// OptionValidationError represents an option validation error
type OptionValidationError struct {
	Field   string      // The field that failed validation
	Value   interface{} // The invalid value
	Message string      // Description of the error
}

func (e *OptionValidationError) Error() string {
	return fmt.Sprintf("option '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// ValidationResult holds the result of option validation
type ValidationResult struct {
	IsValid bool
	Errors  []*OptionValidationError
}

func (r *ValidationResult) add(field string, value interface{}, msg string) {
	r.IsValid = false
	r.Errors = append(r.Errors, &OptionValidationError{Field: field, Value: value, Message: msg})
}

// Err returns nil for a valid result, otherwise an ErrConfig listing every
// problem.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return types.NewAppErrorWithDetails(types.ErrConfig, "invalid translation options", strings.Join(msgs, "; "), nil)
}

// ValidateOptions checks that every value is within its accepted range and
// that the language pair is supported.
func ValidateOptions(opts *Options) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	if opts == nil {
		result.add("options", nil, "options cannot be nil")
		return result
	}

	if opts.Backend == nil {
		result.add("Backend", nil, "a translation backend is required")
	}

	if _, _, err := lang.Validate(opts.SourceLang, opts.DestLang); err != nil {
		result.add("SourceLang/DestLang", opts.SourceLang+"/"+opts.DestLang, err.Error())
	}

	if opts.MaxRequestSize < MinRequestSize {
		result.add("MaxRequestSize", opts.MaxRequestSize, fmt.Sprintf("must be at least %d", MinRequestSize))
	} else if opts.MaxRequestSize > MaxRequestSizeLimit {
		result.add("MaxRequestSize", opts.MaxRequestSize, fmt.Sprintf("must not exceed %d", MaxRequestSizeLimit))
	}

	if opts.MaxRepairDepth <= 0 {
		result.add("MaxRepairDepth", opts.MaxRepairDepth, "must be greater than 0")
	} else if opts.MaxRepairDepth > MaxRepairDepthLimit {
		result.add("MaxRepairDepth", opts.MaxRepairDepth, fmt.Sprintf("must not exceed %d", MaxRepairDepthLimit))
	}

	if opts.MinLetters < 0 {
		result.add("MinLetters", opts.MinLetters, "must be non-negative")
	}

	return result
}

// withLanguages returns a copy of opts carrying the canonical codes.
func (o *Options) withLanguages(src, dst string) *Options {
	c := *o
	c.SourceLang = src
	c.DestLang = dst
	return &c
}

func (o *Options) recorder() metrics.Recorder {
	if o.Metrics == nil {
		return metrics.Nop{}
	}
	return o.Metrics
}
