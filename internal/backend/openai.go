package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"translatex/internal/config"
	"translatex/internal/logger"
	"translatex/internal/types"
)

// OpenAIConfig configures the chat model backend.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Retry   RetryPolicy
}

// chatGenerator is the part of an eino chat model the backend uses.
type chatGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// OpenAI translates with an OpenAI-compatible chat model.
type OpenAI struct {
	chat  chatGenerator
	model string
	retry RetryPolicy
}

// NewOpenAI creates the chat model. An API key is required.
func NewOpenAI(ctx context.Context, cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, types.NewAppErrorWithDetails(types.ErrConfig, "OpenAI API key is not configured",
			"set "+config.EnvOpenAIAPIKey+" or openai_api_key", nil)
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultModel
	}

	chatModelConfig := &openai.ChatModelConfig{
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	}
	if cfg.BaseURL != "" {
		chatModelConfig.BaseURL = cfg.BaseURL
	}

	chatModel, err := openai.NewChatModel(ctx, chatModelConfig)
	if err != nil {
		return nil, types.NewAppError(types.ErrConfig, "failed to create chat model", err)
	}
	return newOpenAIWithGenerator(chatModel, cfg.Model, cfg.Retry), nil
}

func newOpenAIWithGenerator(chat chatGenerator, modelName string, retry RetryPolicy) *OpenAI {
	return &OpenAI{chat: chat, model: modelName, retry: retry}
}

// Name returns "openai".
func (o *OpenAI) Name() string { return "openai" }

// Translate asks the model for a translation that keeps every marker.
func (o *OpenAI) Translate(ctx context.Context, text, src, dst string) (string, error) {
	return o.retry.do(ctx, o.Name(), func() (string, error) {
		return o.doTranslate(ctx, text, src, dst)
	})
}

func (o *OpenAI) doTranslate(ctx context.Context, text, src, dst string) (string, error) {
	logger.Debug("calling chat model for translation",
		logger.String("model", o.model), logger.Int("chars", len(text)))

	resp, err := o.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(buildSystemPrompt(src, dst)),
		schema.UserMessage(text),
	})
	if err != nil {
		return "", classifyChatError(err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", types.NewAppError(types.ErrBackend, "chat model returned an empty response", nil)
	}
	return preserveEdges(text, resp.Content), nil
}

// buildSystemPrompt tells the model which languages to use and how to treat
// the markers.
func buildSystemPrompt(src, dst string) string {
	return fmt.Sprintf(`You are a professional translator of scientific texts.
Translate the user's text from %s to %s.

RULES:
1. Output ONLY the translation, without explanations or quotes around it.
2. The text contains markers such as {{T0KEN5EP12}}, {CH4NK_SEP3} and {P4RA}.
   Copy every marker exactly as written, in the same order, with the same number.
   Never translate, transliterate, merge or drop a marker.
3. Keep line breaks around markers where they are in the input.`, languageName(src), languageName(dst))
}

func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// preserveEdges restores the leading and trailing newlines of the request,
// which chat models tend to strip; chunk separators rely on them.
func preserveEdges(request, reply string) string {
	reply = strings.Trim(reply, "\n")
	lead := len(request) - len(strings.TrimLeft(request, "\n"))
	trail := len(request) - len(strings.TrimRight(request, "\n"))
	return strings.Repeat("\n", lead) + reply + strings.Repeat("\n", trail)
}

// classifyChatError maps chat model errors onto the retry taxonomy.
func classifyChatError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded), strings.Contains(msg, "timeout"),
		strings.Contains(msg, "connection refused"), strings.Contains(msg, "connection reset"):
		return types.NewAppError(types.ErrNetwork, "chat model request failed", err)
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"):
		return types.NewAppError(types.ErrAPIRateLimit, "chat model rate limit exceeded", err)
	case strings.Contains(msg, "status code: 5"):
		return types.NewAppErrorWithDetails(types.ErrBackend, "chat model server error", "status 5xx", err)
	default:
		return types.NewAppError(types.ErrBackend, "chat model request failed", err)
	}
}
