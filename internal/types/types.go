// Package types defines core data types and enums for the LaTeX translator.
package types

import (
	"errors"
	"time"
)

// Config is the application configuration. It is decoded from YAML/JSON files
// and environment overrides by the config package.
type Config struct {
	SourceLang       string        `json:"source_lang" yaml:"source_lang" mapstructure:"source_lang"`
	DestLang         string        `json:"dest_lang" yaml:"dest_lang" mapstructure:"dest_lang"`
	Backend          string        `json:"backend" yaml:"backend" mapstructure:"backend"` // openai, google or echo
	MaxRequestSize   int           `json:"max_request_size" yaml:"max_request_size" mapstructure:"max_request_size"`
	MaxRepairDepth   int           `json:"max_repair_depth" yaml:"max_repair_depth" mapstructure:"max_repair_depth"`
	SkipFailedChunks bool          `json:"skip_failed_chunks" yaml:"skip_failed_chunks" mapstructure:"skip_failed_chunks"`
	Postprocess      bool          `json:"postprocess" yaml:"postprocess" mapstructure:"postprocess"`
	MinLetters       int           `json:"min_letters" yaml:"min_letters" mapstructure:"min_letters"`
	RulesFile        string        `json:"rules_file" yaml:"rules_file" mapstructure:"rules_file"`
	InputEncoding    string        `json:"input_encoding" yaml:"input_encoding" mapstructure:"input_encoding"`
	OpenAIAPIKey     string        `json:"openai_api_key" yaml:"openai_api_key" mapstructure:"openai_api_key"`
	OpenAIBaseURL    string        `json:"openai_base_url" yaml:"openai_base_url" mapstructure:"openai_base_url"`
	OpenAIModel      string        `json:"openai_model" yaml:"openai_model" mapstructure:"openai_model"`
	GoogleURL        string        `json:"google_url" yaml:"google_url" mapstructure:"google_url"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	MaxRetries       int           `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
	RedisAddr        string        `json:"redis_addr" yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword    string        `json:"redis_password" yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB          int           `json:"redis_db" yaml:"redis_db" mapstructure:"redis_db"`
	CacheTTL         time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`
	LogLevel         string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogFile          string        `json:"log_file" yaml:"log_file" mapstructure:"log_file"`
}

// TranslationResult is the outcome of translating one document.
type TranslationResult struct {
	OriginalContent   string `json:"original_content"`
	TranslatedContent string `json:"translated_content"`
	Report            Report `json:"report"`
}

// Report summarizes a translation run.
type Report struct {
	Chunks             int     `json:"chunks"`
	Requests           int     `json:"requests"`
	Bisections         int     `json:"bisections"`
	CharsSent          int     `json:"chars_sent"`
	TranslatedLeaves   int     `json:"translated_leaves"`
	UntranslatedLeaves int     `json:"untranslated_leaves"`
	FailedChunks       int     `json:"failed_chunks"`
	Warnings           []Issue `json:"warnings,omitempty"`
}

// Merge adds the counters and warnings of other to r.
func (r *Report) Merge(other Report) {
	r.Chunks += other.Chunks
	r.Requests += other.Requests
	r.Bisections += other.Bisections
	r.CharsSent += other.CharsSent
	r.TranslatedLeaves += other.TranslatedLeaves
	r.UntranslatedLeaves += other.UntranslatedLeaves
	r.FailedChunks += other.FailedChunks
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Issue is a non-fatal problem found during a run.
type Issue struct {
	Code     ErrorCode `json:"code"`
	Location string    `json:"location,omitempty"`
	Message  string    `json:"message"`
}

// ErrorCode 错误代码枚举
type ErrorCode string

const (
	ErrInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrParse             ErrorCode = "PARSE_ERROR"
	ErrConfig            ErrorCode = "CONFIG_ERROR"
	ErrFile              ErrorCode = "FILE_ERROR"
	ErrBackend           ErrorCode = "BACKEND_ERROR"
	ErrNetwork           ErrorCode = "NETWORK_ERROR"
	ErrAPIRateLimit      ErrorCode = "API_RATE_LIMIT"
	ErrAlignment         ErrorCode = "ALIGNMENT_MISMATCH"
	ErrOversizeLeaf      ErrorCode = "OVERSIZE_LEAF"
	ErrClassificationGap ErrorCode = "CLASSIFICATION_GAP"
	ErrInternal          ErrorCode = "INTERNAL_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
