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

	"KeeperMigrate/internal/config"
	"KeeperMigrate/internal/handlers"
	"KeeperMigrate/internal/logger"
	"KeeperMigrate/internal/middleware"
	"KeeperMigrate/internal/repo"
	"KeeperMigrate/internal/service"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sugar, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		_ = sugar.Sync()
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	accountRepo := repo.NewAccountRepository(gormDB)
	vaultRepo := repo.NewVaultRepository(gormDB)
	itemRepo := repo.NewItemRepository(gormDB)
	logRepo := repo.NewActivityLogRepository(gormDB)

	if cfg.SeedFile != "" {
		seed, err := service.LoadSeed(cfg.SeedFile)
		if err != nil {
			sugar.Fatalw("failed to load seed", "file", cfg.SeedFile, "error", err)
		}
		stats, err := service.NewSeeder(accountRepo, vaultRepo, itemRepo, logRepo, sugar).Apply(ctx, seed)
		if err != nil {
			sugar.Fatalw("failed to apply seed", "file", cfg.SeedFile, "error", err)
		}
		sugar.Infow("seed applied",
			"accounts", stats.Accounts, "vaults", stats.Vaults, "folders", stats.Folders,
			"items", stats.Items, "attachments", stats.Attachments, "activity_logs", stats.ActivityLogs)
	}

	authService := service.NewAuthService(accountRepo, logRepo, cfg.AuthSecret, cfg.TokenTTL)
	vaultService := service.NewVaultService(vaultRepo, itemRepo, logRepo)
	h := handlers.NewHandler(authService, vaultService, sugar, cfg)

	sugar.Infow("Starting sandbox",
		"addr", cfg.SandboxAddr,
		"DatabaseDSN", cfg.DatabaseDSN,
		"TokenTTL", cfg.TokenTTL,
	)

	srv := &http.Server{Addr: cfg.SandboxAddr, Handler: h.Router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("Server failed", "error", err)
	}
}
