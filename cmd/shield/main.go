package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JeanGrijp/ddos-shield/internal/adapters/http/router"
	"github.com/JeanGrijp/ddos-shield/internal/adapters/storage/memory"
	redisstorage "github.com/JeanGrijp/ddos-shield/internal/adapters/storage/redis"
	"github.com/JeanGrijp/ddos-shield/internal/config"
	"github.com/JeanGrijp/ddos-shield/internal/core/ports"
	"github.com/JeanGrijp/ddos-shield/internal/core/services"
	"github.com/JeanGrijp/ddos-shield/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	storage, closeFn, err := initStorage(cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to init storage", zap.Error(err))
	}
	defer closeFn()

	rules := cfg.Admission
	state, err := services.NewAdmissionState(rules.Whitelist)
	if err != nil {
		logger.Fatal("failed to build admission state", zap.Error(err))
	}

	pipeline, err := services.NewDefaultPipeline(state, storage, rules, services.TimerScheduler{})
	if err != nil {
		logger.Fatal("failed to create admission pipeline", zap.Error(err))
	}

	sampler := services.NewRequestSampler(rules.HistorySize, rules.SampleInterval)
	detector := services.NewAttackDetector(state, rules.DDoSThreshold, rules.DetectionInterval, logger)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Server.ShieldPort),
		Handler: router.NewShield(router.ShieldDeps{
			Sampler:    sampler,
			Pipeline:   pipeline,
			Rules:      rules,
			Stats:      observability.NewAdmissionStats(),
			Logger:     logger,
			TrustProxy: cfg.Server.TrustProxy,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sampler.Run(gctx) })
	g.Go(func() error { return detector.Run(gctx) })
	g.Go(func() error {
		logger.Info("shield server running (anti-ddos)",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.Storage.Type),
			zap.Strings("whitelist", rules.Whitelist))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}

func initStorage(cfg config.StorageConfig, logger *zap.Logger) (ports.Storage, func(), error) {
	switch cfg.Type {
	case "memory":
		storage := memory.New(memory.Config{MaxKeys: cfg.MaxKeys})
		return storage, func() { _ = storage.Close() }, nil
	case "redis":
		redisCfg := redisstorage.Config{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		storage, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, nil, err
		}
		return storage, func() {
			if err := storage.Close(); err != nil {
				logger.Warn("failed to close redis storage", zap.Error(err))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
