package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	ibisbots "github.com/set-night/ibisbots"
	"github.com/set-night/ibisbots/internal/bots"
	"github.com/set-night/ibisbots/internal/bots/vocabulary"
	"github.com/set-night/ibisbots/internal/clock"
	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/httpapi"
	"github.com/set-night/ibisbots/internal/middleware"
	"github.com/set-night/ibisbots/internal/nlp"
	"github.com/set-night/ibisbots/internal/platform"
	"github.com/set-night/ibisbots/internal/repository"
	"github.com/set-night/ibisbots/internal/service"
	"github.com/set-night/ibisbots/internal/telegram"
	"github.com/set-night/ibisbots/internal/textgen"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With("bot", cfg.BotName)
	slog.SetDefault(logger)

	params, err := config.LoadBotParams(cfg.BotParamsFile)
	if err != nil {
		slog.Error("failed to load bot parameters", "file", cfg.BotParamsFile, "error", err)
		os.Exit(1)
	}

	clk, err := clock.Load(cfg.Timezone)
	if err != nil {
		slog.Error("failed to load timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the claim ledger
	migrationsFS, err := fs.Sub(ibisbots.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	ledger, err := repository.Open(ctx, cfg.LedgerDSN, migrationsFS)
	if err != nil {
		slog.Error("failed to open ledger", "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	// Connect to redis for early wake-ups
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("failed to parse redis url", "error", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, waking on deadlines only", "error", err)
		}
	}

	api, err := platform.NewClient(platform.Options{
		BaseURL: cfg.PlatformURL,
		AppURL:  cfg.AppURL,
		Token:   cfg.PlatformToken,
		BotID:   cfg.BotID,
		Timeout: config.RequestTimeout,
		Clock:   clk,
	})
	if err != nil {
		slog.Error("failed to create platform client", "error", err)
		os.Exit(1)
	}

	// Ops notifications
	var notifier service.Notifier = service.NopNotifier{}
	if cfg.TelegramEnabled() {
		tg, err := bot.New(cfg.TelegramBotToken)
		if err != nil {
			slog.Error("failed to create telegram bot", "error", err)
			os.Exit(1)
		}
		notifier = telegram.NewNotifier(tg, cfg, api.AppLink)
	}

	holder := uuid.NewString()
	deps := service.Deps{
		API:        api,
		Clock:      clk,
		Activities: service.NewActivityService(api, cfg.BotName, notifier),
		Rewards:    service.NewRewardService(api, ledger, cfg.BotName, holder, notifier),
		Logger:     logger,
		Rand:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}

	b, err := bots.New(cfg.BotName, deps, params, bots.Extras{
		Generator: func() (textgen.Generator, error) { return newGenerator(cfg) },
		Words: func() (vocabulary.WordCounter, error) {
			return nlp.NewAnalyzer()
		},
	})
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Status endpoint
	if cfg.StatusAddr != "" {
		var wake httpapi.WakeFunc
		if rdb != nil {
			wake = func(ctx context.Context, reason string) error {
				return service.Nudge(ctx, rdb, cfg.BotName, reason)
			}
		}
		srv := httpapi.NewServer(cfg.StatusAddr, cfg.BotName, ledger, wake)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("status server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("status server shutdown", "error", err)
			}
		}()
	}

	waiter := service.NewWaiter(rdb, cfg.BotName)
	defer func() { _ = waiter.Close() }()

	runner := service.NewRunner(b, waiter,
		service.WithLedger(ledger),
		service.WithNotifier(notifier),
		service.WithMiddleware(
			middleware.Recover(cfg.BotName),
			middleware.Logging(cfg.BotName),
			middleware.RateLimit(cfg.BotName, config.MinStepInterval, time.Now),
		),
	)

	// Start bot
	slog.Info("starting bot", "holder", holder, "timezone", cfg.Timezone)
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("bot stopped", "error", err)
		stop()
		os.Exit(1)
	}

	// Graceful shutdown
	slog.Info("bot stopped gracefully")
}

// newGenerator prefers the hosted model when an API key is configured and
// falls back to the local generation script.
func newGenerator(cfg *config.Config) (textgen.Generator, error) {
	switch {
	case cfg.OpenRouterKey != "":
		return textgen.NewOpenRouter(cfg.OpenRouterKey, cfg.OpenRouterModel), nil
	case cfg.TextgenScript != "":
		return textgen.NewSubprocess(cfg.TextgenPython, cfg.TextgenScript, cfg.TextgenModel), nil
	default:
		return nil, errors.New("story bot needs OPENROUTER_API_KEY or TEXTGEN_SCRIPT")
	}
}
