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

	"go.uber.org/zap"

	"chefmate/internal/api"
	"chefmate/internal/api/handlers/health"
	"chefmate/internal/core/ai/cache"
	"chefmate/internal/core/ai/factory"
	"chefmate/internal/core/ai/image"
	"chefmate/internal/core/ai/service"
	"chefmate/internal/core/social"
	"chefmate/internal/core/store"
	"chefmate/internal/infrastructure/config"
	"chefmate/internal/infrastructure/kv"
	"chefmate/internal/pkg/common"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	if err := run(cfg); err != nil {
		common.LogFatal("應用程式異常結束", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	backend, err := kv.New(ctx, &cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer backend.Close()

	st := store.New(backend)
	if err := st.Load(ctx); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	providers := factory.New(cfg)
	providers.SetCredential(st.Credential())
	st.OnCredentialChange(providers.SetCredential)
	defer providers.Close()

	responseCache, err := cache.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	var cacheStats health.CacheStats
	if responseCache != nil {
		defer responseCache.Close()
		if m, ok := responseCache.(*cache.CacheManager); ok {
			cacheStats = m
		}
	}

	router := api.SetupRouter(api.Dependencies{
		Config:    cfg,
		Store:     st,
		Generator: service.NewService(providers, responseCache),
		Images:    image.NewProcessor(cfg.Image),
		Social:    social.NewImporter(cfg.Social),
		Provider:  providers,
		Cache:     cacheStats,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		common.LogInfo("啟動應用",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.String("storage", cfg.Storage.Backend),
			zap.String("ai_provider", cfg.AI.Provider),
			zap.Bool("ai_ready", providers.Ready()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-quit:
	}

	common.LogInfo("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	common.LogInfo("Server exited")
	return nil
}
