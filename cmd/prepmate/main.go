package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/prepmate/internal/cache"
	"github.com/pavelanni/prepmate/internal/genapi"
	"github.com/pavelanni/prepmate/internal/generation"
	appI18n "github.com/pavelanni/prepmate/internal/i18n"
	"github.com/pavelanni/prepmate/internal/llm"
	"github.com/pavelanni/prepmate/internal/store"
	"github.com/pavelanni/prepmate/internal/validation"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: .env:", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "prepmate",
		Short:        "AI course generator and mock interview server",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, generateCmd(), coursesCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `prepmate --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "prepmate.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "auto", "Log format (text, json, auto)")
	f.StringP("lang", "l", "en", "Default language of messages (en, ru)")
}

func addGeneratorFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("generation-endpoint", "", "Remote generation endpoint URL (overrides the built-in LLM client)")
	f.String("generation-token", "", "Bearer token for the remote generation endpoint")
	f.Duration("call-timeout", genapi.DefaultTimeout, "Timeout of a single generation call")
	f.Int("max-retries", 2, "Retries of a failed course generation before using the fallback")
	f.Duration("retry-delay", generation.DefaultConfig().RetryDelay, "Delay between generation retries")
	f.String("redis-url", "", "Redis URL for caching fallback courses (optional)")
	f.Duration("fallback-ttl", 0, "How long cached fallback courses are kept (0 = forever)")
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}

	format := strings.ToLower(v.GetString("log-format"))
	if format == "auto" {
		format = "json"
		if fd := os.Stderr.Fd(); isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			format = "text"
		}
	}
	var logHandler slog.Handler
	switch format {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PREPMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("prepmate")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/prepmate")
	v.AddConfigPath("/etc/prepmate")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// setup configures logging and messages and opens the database.
func setup(cmd *cobra.Command) (*viper.Viper, *store.Store, error) {
	v := viperForCmd(cmd)
	setupLogging(v)

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return nil, nil, fmt.Errorf("init i18n: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return v, db, nil
}

// newGenerator returns the remote endpoint client when one is configured, otherwise
// the built-in LLM client.
func newGenerator(v *viper.Viper) genapi.Generator {
	if url := v.GetString("generation-endpoint"); url != "" {
		opts := []genapi.ClientOption{genapi.WithTimeout(v.GetDuration("call-timeout"))}
		if token := v.GetString("generation-token"); token != "" {
			opts = append(opts, genapi.WithBearerToken(token))
		}
		slog.Info("using remote generation endpoint", "url", url)
		return genapi.NewHTTPClient(url, opts...)
	}
	slog.Info("using built-in LLM client", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	return llm.New(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"))
}

func generatorConfig(v *viper.Viper) generation.Config {
	return generation.Config{
		MaxRetries:  v.GetInt("max-retries"),
		RetryDelay:  v.GetDuration("retry-delay"),
		CallTimeout: v.GetDuration("call-timeout"),
	}
}

// newOrchestrator wires the generator, fallback cache and retry settings. The cache is
// nil unless a Redis URL is configured; the caller closes it.
func newOrchestrator(cmd *cobra.Command, v *viper.Viper, db *store.Store, gen genapi.Generator) (*generation.Orchestrator, *cache.RedisCache, error) {
	var rc *cache.RedisCache
	fallback := generation.NewTemplateFallback(nil, 0)
	if url := v.GetString("redis-url"); url != "" {
		var err error
		rc, err = cache.NewRedisCache(cmd.Context(), url)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		fallback = generation.NewTemplateFallback(rc, v.GetDuration("fallback-ttl"))
		slog.Info("fallback cache enabled")
	}

	orch := generation.New(db, gen,
		generation.WithFallback(fallback),
		generation.WithValidator(validation.New()),
		generation.WithConfig(generatorConfig(v)),
	)
	return orch, rc, nil
}
