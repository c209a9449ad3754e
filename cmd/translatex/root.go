package main

import (
	"context"

	"github.com/spf13/cobra"

	"translatex/internal/backend"
	"translatex/internal/cache"
	"translatex/internal/config"
	"translatex/internal/logger"
	"translatex/internal/types"
)

// globalFlags are shared by every subcommand and override the config file.
type globalFlags struct {
	configPath string
	backend    string
	sourceLang string
	destLang   string
	logLevel   string
	logFile    string
	rulesFile  string
	redisAddr  string
	jsonLog    bool
}

// app carries the state resolved by the root command before a subcommand runs.
type app struct {
	flags globalFlags
	cfg   *types.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "translatex",
		Short: "Translate LaTeX documents while preserving markup",
		Long: `translatex translates LaTeX sources between languages.

Text is cut into chunks interleaved with opaque markers for commands and
math, sent to a translation backend under a per-request size budget and
spliced back into the original document. Markers damaged by the backend
are repaired by bisecting the chunk.

Commands:
  translate   Translate a .tex file
  chunks      Show how a file would be split, without translating
  serve       Run the HTTP API
  version     Print version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configPath, "config", "c", "", "Config file (default ~/.config/translatex/config.yaml)")
	pf.StringVarP(&a.flags.backend, "backend", "b", "", "Translation backend: openai, google or echo")
	pf.StringVarP(&a.flags.sourceLang, "source-lang", "s", "", "Source language code")
	pf.StringVarP(&a.flags.destLang, "dest-lang", "d", "", "Destination language code")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&a.flags.logFile, "log-file", "", "Write logs to this file as well as stderr")
	pf.StringVar(&a.flags.rulesFile, "rules", "", "YAML file with classification rules")
	pf.StringVar(&a.flags.redisAddr, "redis", "", "Redis address for the translation cache")
	pf.BoolVar(&a.flags.jsonLog, "json-log", false, "Emit logs as JSON")

	root.AddCommand(
		newTranslateCmd(a),
		newChunksCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)

	return root
}

// setup loads the configuration, applies flag overrides and starts the logger.
func (a *app) setup(cmd *cobra.Command) error {
	mgr, err := config.NewConfigManager(a.flags.configPath)
	if err != nil {
		return err
	}
	if err := mgr.Load(); err != nil {
		return err
	}
	cfg := mgr.Get()

	flags := cmd.Flags()
	override := func(name string, dst *string, val string) {
		if flags.Changed(name) {
			*dst = val
		}
	}
	override("backend", &cfg.Backend, a.flags.backend)
	override("source-lang", &cfg.SourceLang, a.flags.sourceLang)
	override("dest-lang", &cfg.DestLang, a.flags.destLang)
	override("log-level", &cfg.LogLevel, a.flags.logLevel)
	override("log-file", &cfg.LogFile, a.flags.logFile)
	override("rules", &cfg.RulesFile, a.flags.rulesFile)
	override("redis", &cfg.RedisAddr, a.flags.redisAddr)

	if err := config.Validate(cfg); err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return types.NewAppError(types.ErrConfig, "invalid log level", err)
	}
	if err := logger.Init(&logger.Config{
		LogFilePath:   cfg.LogFile,
		MaxFileSize:   10 * 1024 * 1024,
		MaxBackups:    5,
		Level:         level,
		EnableConsole: true,
		JSON:          a.flags.jsonLog,
	}); err != nil {
		return types.NewAppError(types.ErrFile, "failed to open log file", err)
	}

	a.cfg = cfg
	return nil
}

// newBackend builds the configured backend, wrapped in the Redis cache
// when an address is set. The returned func releases the cache connection.
func (a *app) newBackend(ctx context.Context) (backend.Backend, func(), error) {
	b, err := backend.New(ctx, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	if a.cfg.RedisAddr == "" {
		return b, func() {}, nil
	}

	c := cache.Open(b, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB, cache.WithTTL(a.cfg.CacheTTL))
	if err := c.Ping(ctx); err != nil {
		logger.Warn("translation cache unreachable, requests will bypass it",
			logger.String("address", a.cfg.RedisAddr), logger.Err(err))
	} else {
		logger.Info("translation cache enabled", logger.String("address", a.cfg.RedisAddr))
	}
	return c, func() { c.Close() }, nil
}
