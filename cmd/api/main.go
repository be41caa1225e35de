package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/workwAIse/furniturematch-sub000/internal/api"
	"github.com/workwAIse/furniturematch-sub000/internal/config"
	"github.com/workwAIse/furniturematch-sub000/internal/extract"
	"github.com/workwAIse/furniturematch-sub000/internal/fetcher"
	"github.com/workwAIse/furniturematch-sub000/internal/proxy"
	"github.com/workwAIse/furniturematch-sub000/internal/robots"
	"github.com/workwAIse/furniturematch-sub000/internal/search"
	"github.com/workwAIse/furniturematch-sub000/internal/suggest"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "Path to pipeline configuration")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := fetcher.NewClient(fetcher.Options{
		Timeout:      cfg.Fetch.Timeout.Duration,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		ProxyURL:     cfg.Fetch.ProxyURL,
	})
	if err != nil {
		log.Fatalf("failed to build fetch client: %v", err)
	}

	limiter := fetcher.NewHostLimiter(cfg.Fetch.PerHostDelay.Duration, fetcher.RateLimiterSettings{
		Requests: cfg.Fetch.RateLimit.Requests,
		Window:   cfg.Fetch.RateLimit.Window.Duration,
	})
	retrying := fetcher.NewRetrying(client, fetcher.RetryOptions{
		MaxAttempts:     cfg.Fetch.MaxAttempts,
		Backoff:         cfg.Fetch.RetryBackoff.Duration,
		MinContentBytes: cfg.Fetch.MinContentBytes,
		Limiter:         limiter,
		Logger:          logger,
	})
	renderer := fetcher.NewRenderer(fetcher.RenderOptions{
		Timeout:            cfg.Rendering.Timeout.Duration,
		SettleDelay:        cfg.Rendering.SettleDelay.Duration,
		MaxBodyBytes:       cfg.Rendering.MaxBodyBytes,
		ConcurrentSessions: cfg.Rendering.ConcurrentSessions,
		DisableHeadless:    cfg.Rendering.DisableHeadless,
	}, logger)

	agent := robots.NewAgent(cfg.Robots, client.HTTPClient())
	contentProxy := proxy.New(retrying, renderer, agent, logger)

	resolver := search.NewResolver(cfg.Search, logger)
	extractor := extract.NewService(cfg.Extraction, logger)
	generator := suggest.NewGenerator(cfg.Reasoning, cfg.Pipeline.MaxSuggestions, logger)
	pipeline := suggest.NewPipeline(generator, resolver, extractor, logger)

	server := api.NewServer(pipeline, contentProxy, logger)

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: server,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error", "error", err)
		}
	}()

	logger.Info("api server listening", "addr", *addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
	logger.Info("api server stopped")
}

func buildLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unsupported log level %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Structured {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler), nil
}
