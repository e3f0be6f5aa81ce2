package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zenlabs/echobrain/internal/analysis"
	"github.com/zenlabs/echobrain/internal/completion"
	"github.com/zenlabs/echobrain/internal/config"
	"github.com/zenlabs/echobrain/internal/httpapi"
	"github.com/zenlabs/echobrain/internal/memory"
	"github.com/zenlabs/echobrain/internal/observability"
	"github.com/zenlabs/echobrain/internal/orchestrator"
	"github.com/zenlabs/echobrain/internal/persona"
	"github.com/zenlabs/echobrain/internal/voice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	archive, err := memory.NewArchive(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("memory archive init failed: %v", err)
	}
	if archive != nil {
		defer archive.Close()
		log.Printf("memory archive: postgres")
	}

	store := memory.NewSessionStore(cfg.MemoryCap, cfg.MemoryTTL, archive)
	store.SetSweepHook(func(removed int) {
		metrics.SweptConversations.Add(float64(removed))
		metrics.ActiveConversations.Set(float64(store.Len()))
	})
	store.SetEvictHook(func(evicted int) {
		metrics.EvictedRecords.Add(float64(evicted))
	})

	client, err := completion.New(completion.Config{
		Mode:    cfg.CompletionMode,
		BaseURL: cfg.CompletionBaseURL,
		APIKey:  cfg.CompletionAPIKey,
		Model:   cfg.CompletionModel,
		Timeout: cfg.CompletionTimeout,
	})
	if err != nil {
		log.Fatalf("completion client init failed: %v", err)
	}
	instrumented := observability.InstrumentClient(client, metrics)

	engine := analysis.NewEngine(instrumented, store)
	registry := persona.NewRegistry()
	router := persona.NewRouter(registry, engine, instrumented, store)

	var (
		transcriber voice.Transcriber
		synthesizer voice.Synthesizer
	)
	switch strings.ToLower(strings.TrimSpace(cfg.VoiceProvider)) {
	case "mock":
		p := voice.NewMockProvider()
		transcriber = p
		synthesizer = p
		log.Printf("voice provider: mock")
	case "", "none":
		log.Printf("voice provider: none (speech endpoints report unavailable)")
	default:
		log.Fatalf("invalid VOICE_PROVIDER: %q (expected none|mock)", cfg.VoiceProvider)
	}

	orch := orchestrator.New(orchestrator.Config{
		Router:      router,
		Engine:      engine,
		Store:       store,
		Transcriber: transcriber,
		Synthesizer: synthesizer,
		Completion:  true,
		Metrics:     metrics,
	})

	api := httpapi.New(cfg, orch, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	store.StartJanitor(runCtx, cfg.MemorySweepInterval)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
