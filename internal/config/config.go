// Package config provides configuration management for the LaTeX translator.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"translatex/internal/lang"
	"translatex/internal/logger"
	"translatex/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "config.yaml"
	// EnvOpenAIAPIKey is the environment variable name for OpenAI API key
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	// EnvOpenAIBaseURL is the environment variable name for OpenAI base URL
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	// EnvOpenAIModel is the environment variable name for the OpenAI model
	EnvOpenAIModel = "OPENAI_MODEL"
	// EnvRedisAddr overrides the Redis cache address
	EnvRedisAddr = "TRANSLATEX_REDIS_ADDR"
	// EnvBackend overrides the translation backend
	EnvBackend = "TRANSLATEX_BACKEND"
	// EnvLogLevel overrides the log level
	EnvLogLevel = "TRANSLATEX_LOG_LEVEL"

	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the default OpenAI model to use
	DefaultModel = "gpt-4"
	// DefaultGoogleURL is the endpoint of the Google dictionary-extension translator
	DefaultGoogleURL = "https://clients5.google.com/translate_a/t"
	// DefaultBackend is the backend used when none is configured
	DefaultBackend = "google"
	// DefaultMaxRequestSize is the per-request character budget
	DefaultMaxRequestSize = 2000
	// DefaultMaxRepairDepth bounds the bisection recursion
	DefaultMaxRepairDepth = 32
	// DefaultMinLetters is the post-filter threshold: leaves with fewer letters are not sent
	DefaultMinLetters = 2
	// DefaultTimeout is the per-request backend timeout
	DefaultTimeout = 60 * time.Second
	// DefaultMaxRetries is the number of backend retries on transient errors
	DefaultMaxRetries = 3
	// DefaultCacheTTL is how long cached translations live in Redis
	DefaultCacheTTL = 7 * 24 * time.Hour
)

// Backends lists the accepted values of Config.Backend.
var Backends = []string{"openai", "google", "echo"}

// ConfigManager manages application configuration
type ConfigManager struct {
	configPath string
	config     *types.Config
	getenv     func(string) string
}

// NewConfigManager creates a new ConfigManager with the specified config path.
// If configPath is empty, it uses the default path in user's home directory.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "translatex", DefaultConfigFileName)
	}

	logger.Debug("ConfigManager initialized", logger.String("configPath", configPath))
	return &ConfigManager{
		configPath: configPath,
		config:     DefaultConfig(),
		getenv:     os.Getenv,
	}, nil
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *types.Config {
	return &types.Config{
		SourceLang:     "en",
		DestLang:       "ru",
		Backend:        DefaultBackend,
		MaxRequestSize: DefaultMaxRequestSize,
		MaxRepairDepth: DefaultMaxRepairDepth,
		Postprocess:    true,
		MinLetters:     DefaultMinLetters,
		OpenAIBaseURL:  DefaultBaseURL,
		OpenAIModel:    DefaultModel,
		GoogleURL:      DefaultGoogleURL,
		Timeout:        DefaultTimeout,
		MaxRetries:     DefaultMaxRetries,
		CacheTTL:       DefaultCacheTTL,
		LogLevel:       "info",
	}
}

// Load loads configuration from the config file.
// If the file doesn't exist, it uses default values. Values present in the
// file replace the defaults; environment overrides are applied on top.
func (m *ConfigManager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	raw := map[string]interface{}{}

	data, err := os.ReadFile(m.configPath)
	switch {
	case os.IsNotExist(err):
		logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
	case err != nil:
		logger.Error("failed to read config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrFile, "failed to read config file", err)
	default:
		if err := unmarshalByExt(m.configPath, data, &raw); err != nil {
			logger.Error("invalid config file format", err, logger.String("path", m.configPath))
			return types.NewAppErrorWithDetails(types.ErrConfig, "invalid config file format", m.configPath, err)
		}
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}

	m.applyEnv(raw)

	config := DefaultConfig()
	if err := decode(raw, config); err != nil {
		return types.NewAppErrorWithDetails(types.ErrConfig, "invalid configuration value", m.configPath, err)
	}
	if err := Validate(config); err != nil {
		return err
	}

	logger.Info("configuration loaded successfully",
		logger.String("path", m.configPath),
		logger.String("backend", config.Backend),
		logger.String("sourceLang", config.SourceLang),
		logger.String("destLang", config.DestLang),
		logger.Int("maxRequestSize", config.MaxRequestSize))
	m.config = config
	return nil
}

// applyEnv merges environment overrides into raw. TRANSLATEX_* variables
// always win; the OpenAI variables only fill values the file leaves empty.
func (m *ConfigManager) applyEnv(raw map[string]interface{}) {
	overrides := map[string]string{
		EnvRedisAddr: "redis_addr",
		EnvBackend:   "backend",
		EnvLogLevel:  "log_level",
	}
	for env, key := range overrides {
		if v := m.getenv(env); v != "" {
			raw[key] = v
		}
	}

	fallbacks := map[string]string{
		EnvOpenAIAPIKey:  "openai_api_key",
		EnvOpenAIBaseURL: "openai_base_url",
		EnvOpenAIModel:   "openai_model",
	}
	for env, key := range fallbacks {
		if s, _ := raw[key].(string); s != "" {
			continue
		}
		if v := m.getenv(env); v != "" {
			raw[key] = v
		}
	}
}

// decode overlays raw onto cfg. Keys absent from raw keep cfg's values.
func decode(raw map[string]interface{}, cfg *types.Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func unmarshalByExt(path string, data []byte, out *map[string]interface{}) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Unmarshal(data, out)
	}
	return yaml.Unmarshal(data, out)
}

// Validate checks that cfg is usable by the engine.
func Validate(cfg *types.Config) error {
	if _, _, err := lang.Validate(cfg.SourceLang, cfg.DestLang); err != nil {
		return err
	}
	known := false
	for _, b := range Backends {
		if cfg.Backend == b {
			known = true
			break
		}
	}
	if !known {
		return types.NewAppErrorWithDetails(types.ErrConfig, "unknown backend", cfg.Backend, nil)
	}
	if cfg.MaxRequestSize <= 0 {
		return types.NewAppErrorWithDetails(types.ErrConfig, "max_request_size must be positive",
			fmt.Sprint(cfg.MaxRequestSize), nil)
	}
	if cfg.MaxRepairDepth <= 0 {
		return types.NewAppErrorWithDetails(types.ErrConfig, "max_repair_depth must be positive",
			fmt.Sprint(cfg.MaxRepairDepth), nil)
	}
	if cfg.MinLetters < 0 {
		return types.NewAppErrorWithDetails(types.ErrConfig, "min_letters must not be negative",
			fmt.Sprint(cfg.MinLetters), nil)
	}
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return types.NewAppError(types.ErrConfig, "invalid log_level", err)
	}
	return nil
}

// Save saves the current configuration to the config file.
func (m *ConfigManager) Save() error {
	logger.Debug("saving configuration", logger.String("path", m.configPath))

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("failed to create config directory", err, logger.String("dir", dir))
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(m.configPath), ".json") {
		data, err = json.MarshalIndent(m.config, "", "  ")
	} else {
		data, err = yaml.Marshal(m.config)
	}
	if err != nil {
		logger.Error("failed to marshal config", err)
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		logger.Error("failed to write config file", err, logger.String("path", m.configPath))
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved successfully", logger.String("path", m.configPath))
	return nil
}

// Get returns the current configuration.
func (m *ConfigManager) Get() *types.Config {
	if m.config == nil {
		return DefaultConfig()
	}
	return m.config
}

// Set replaces the entire configuration.
func (m *ConfigManager) Set(config *types.Config) {
	m.config = config
}

// Path returns the path to the config file.
func (m *ConfigManager) Path() string {
	return m.configPath
}

// GetAPIKey returns the OpenAI API key.
// It first checks the config value, then falls back to the environment variable.
func (m *ConfigManager) GetAPIKey() string {
	if m.config != nil && m.config.OpenAIAPIKey != "" {
		return m.config.OpenAIAPIKey
	}
	return m.getenv(EnvOpenAIAPIKey)
}
