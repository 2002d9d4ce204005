package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/buildquote/internal/config"
	"github.com/Simplici0/buildquote/internal/db"
	"github.com/Simplici0/buildquote/internal/logger"
	"github.com/Simplici0/buildquote/internal/migrations"
	"github.com/Simplici0/buildquote/internal/pricing"
	"github.com/Simplici0/buildquote/internal/seed"
)

func main() {
	cfg, warnings := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	for _, w := range warnings {
		log.Warn("configuration warning", "detail", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if cfg.MigrateOnStart {
		if err := migrations.Up(database); err != nil {
			return fmt.Errorf("run database migrations: %w", err)
		}
	}
	version, err := migrations.Version(database)
	if err != nil {
		return err
	}

	stats, err := seed.Run(ctx, database, seed.Config{CatalogPath: cfg.CatalogSeedPath})
	if err != nil {
		return fmt.Errorf("seed material catalog: %w", err)
	}
	log.Info("database ready", "path", cfg.DBPath, "schema_version", version, "seeded", stats.Inserts, "kept", stats.Skipped)

	pricingCfg, err := loadPricing(cfg.PricingConfigPath)
	if err != nil {
		return err
	}
	log.Info("pricing configuration loaded", "version", pricingCfg.Version, "currency", pricingCfg.Currency)

	secret, err := sessionSecret(cfg)
	if err != nil {
		return err
	}
	if cfg.SessionSecret == "" {
		log.Warn("using an ephemeral session secret; visitor cookies reset on restart")
	}

	srv := newServer(database, log, pricingCfg, newVisitorService(secret, !cfg.IsDev()))
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(cfg.RequestTimeout),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", httpServer.Addr, "env", cfg.AppEnv)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func loadPricing(path string) (pricing.Configuration, error) {
	if path == "" {
		return pricing.DefaultConfiguration()
	}
	cfg, err := pricing.LoadConfigurationFile(path)
	if err != nil {
		return pricing.Configuration{}, fmt.Errorf("load pricing configuration %s: %w", path, err)
	}
	return cfg, nil
}

// sessionSecret returns the configured secret. Outside development a
// missing secret is fatal; in development a random one is generated.
func sessionSecret(cfg config.Config) (string, error) {
	if cfg.SessionSecret != "" {
		return cfg.SessionSecret, nil
	}
	if !cfg.IsDev() {
		return "", errors.New("SESSION_SECRET is required outside development")
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
