package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ayush/research-content-generator/internal/chatbot"
	"github.com/ayush/research-content-generator/internal/config"
	"github.com/ayush/research-content-generator/internal/export"
	"github.com/ayush/research-content-generator/internal/httpx"
	"github.com/ayush/research-content-generator/internal/llm"
	"github.com/ayush/research-content-generator/internal/logging"
	"github.com/ayush/research-content-generator/internal/middleware"
	"github.com/ayush/research-content-generator/internal/research"
	"github.com/ayush/research-content-generator/internal/session"
	"github.com/ayush/research-content-generator/internal/store"
)

const sweepInterval = 10 * time.Minute

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "research-tool",
		Short:        "Research Content Generator API server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx)
		},
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// ── Completion client ────────────────────────────────────
	completer, err := newCompleter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// ── Session store ────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	var sessions session.Store
	if cfg.RedisAddr != "" {
		rdb, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb, cfg.SessionTTL)
		logger.Info("session store: redis", zap.String("addr", cfg.RedisAddr))
	} else {
		mem := session.NewMemoryStore(cfg.SessionTTL)
		sessions = mem
		g.Go(func() error { return sweep(gctx, mem, logger) })
		logger.Info("session store: memory")
	}

	// ── MinIO ────────────────────────────────────────────────
	var artifacts research.FileStore
	if cfg.MinioEndpoint != "" {
		a, err := store.NewArtifactStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio connect: %w", err)
		}
		artifacts = a
		logger.Info("export cache: minio", zap.String("bucket", cfg.MinioBucket))
	}

	// ── Export ───────────────────────────────────────────────
	pdf := export.NewPDFConverter(ctx, export.PDFConfig{
		PandocPath: cfg.PandocPath,
		Engine:     cfg.PDFEngine,
		Font:       cfg.PDFFont,
	}, logger)

	// ── Services and handlers ────────────────────────────────
	chat := chatbot.NewService(completer, chatbot.Config{
		Model:         cfg.ChatModel,
		Temperature:   cfg.ChatTemperature,
		HistoryWindow: cfg.ChatHistoryWindow,
	}, logger)
	pipeline := research.NewPipeline(
		research.NewPromptEngineer(completer, cfg.PipelineModel, cfg.MaxTokens, logger),
		research.NewGenerator(completer, cfg.PipelineModel, cfg.MaxTokens, logger),
		sessions, chat, cfg.PipelineModel, logger,
	)
	researchHandler := research.NewHandler(pipeline, sessions, artifacts, pdf, export.NewHTMLRenderer(), logger)
	chatHandler := chatbot.NewHandler(chat, sessions, logger)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Export-Cache"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.EnsureSession(cfg.SessionTTL))
		r.Get("/api/options", researchHandler.Options)
		r.Delete("/api/session", researchHandler.Reset)
		r.Route("/api/research", researchHandler.Routes)
		r.Route("/api/chat", chatHandler.Routes)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	g.Go(func() error {
		logger.Info("backend listening", zap.String("port", cfg.Port), zap.String("provider", cfg.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}

func newCompleter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (llm.Completer, error) {
	counter := llm.NewTiktokenCounter()
	switch cfg.Provider {
	case config.ProviderGemini:
		c, err := llm.NewGeminiClient(ctx, cfg.APIKey, counter, logger)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return c, nil
	default:
		return llm.NewOpenAIClient(cfg.APIKey, cfg.BaseURL, counter, logger), nil
	}
}

// sweep periodically drops expired in-memory UI sessions.
func sweep(ctx context.Context, mem *session.MemoryStore, logger *zap.Logger) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := mem.Sweep(); n > 0 {
				logger.Debug("expired ui sessions dropped", zap.Int("count", n))
			}
		}
	}
}
