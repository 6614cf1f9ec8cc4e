// Command addresskit-ingest runs one G-NAF ingestion pass, or serves the
// autocomplete/detail-lookup HTTP API, depending on its subcommand.
//
// Usage:
//
//	addresskit-ingest ingest   # default if no subcommand is given
//	addresskit-ingest serve
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gnaf-kit/addresskit/internal/api"
	"github.com/gnaf-kit/addresskit/internal/archive"
	"github.com/gnaf-kit/addresskit/internal/config"
	"github.com/gnaf-kit/addresskit/internal/fetch"
	"github.com/gnaf-kit/addresskit/internal/ingest"
	"github.com/gnaf-kit/addresskit/internal/manifest"
	"github.com/gnaf-kit/addresskit/internal/query"
	"github.com/gnaf-kit/addresskit/internal/searchindex"
	"github.com/gnaf-kit/addresskit/internal/telemetry"
	"golang.org/x/time/rate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, shutdown, err := telemetry.Bootstrap(ctx, "addresskit", os.Getenv("ADDRESSKIT_OTLP_ENDPOINT"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "addresskit: telemetry bootstrap failed: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("addresskit: telemetry shutdown failed", "error", err)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("addresskit: loading configuration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("addresskit: configuration loaded", "config", cfg.String())

	subcommand := "ingest"
	if len(os.Args) > 1 {
		subcommand = os.Args[1]
	}

	switch subcommand {
	case "ingest":
		if err := runIngest(ctx, cfg); err != nil {
			slog.Error("addresskit: ingestion failed", "error", err)
			os.Exit(1)
		}
	case "serve":
		if err := runServe(ctx, cfg); err != nil {
			slog.Error("addresskit: serving failed", "error", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "addresskit: unknown subcommand %q (want \"ingest\" or \"serve\")\n", subcommand)
		os.Exit(2)
	}
}

func newBackend(cfg *config.Config) searchindex.Backend {
	baseURL := os.Getenv("ADDRESSKIT_BACKEND_URL")
	if baseURL == "" {
		baseURL = "http://localhost:9200"
	}
	return searchindex.NewHTTPBackend(baseURL, cfg.ESIndexName, nil)
}

func runIngest(ctx context.Context, cfg *config.Config) error {
	httpCache := manifest.NewHTTPCache(cfg.CacheDir+"/gnaf-http-cache.msgpack", nil)
	httpClient := &http.Client{Transport: httpCache}

	manifestCache := manifest.NewCache(cfg.CacheDir+"/keyv-file.msgpack",
		ingest.HTTPManifestFetcher{Client: httpClient})

	backend := newBackend(cfg)

	var limiter *rate.Limiter
	if cfg.IndexRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.IndexRate), 1)
	}
	sink := searchindex.NewSink(backend, searchindex.SinkOptions{
		InitialBackoff:   cfg.IndexBackoff.Std(),
		BackoffIncrement: cfg.IndexBackoffIncrement.Std(),
		MaxBackoff:       cfg.IndexBackoffMax.Std(),
		Limiter:          limiter,
		BulkTimeout:      cfg.IndexTimeout.Std(),
	})

	o := &ingest.Orchestrator{
		Config:        cfg,
		ManifestCache: manifestCache,
		Fetcher:       &fetch.Fetcher{},
		Extractor:     &archive.Extractor{},
		Backend:       backend,
		Sink:          sink,
	}

	start := time.Now()
	if err := o.Run(ctx); err != nil {
		return err
	}
	slog.Info("addresskit: ingestion complete", "elapsed", time.Since(start))
	return nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	backend := newBackend(cfg)
	composer := query.NewComposer(backend, cfg.PageSize)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", api.SearchHandler(composer))
	mux.HandleFunc("GET /addresses/{pid}", api.AddressHandler(backend))

	addr := os.Getenv("ADDRESSKIT_HTTP_LISTEN_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8080"
	}
	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("addresskit: starting http server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
