package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"drink-ledger/internal/blacklist"
	"drink-ledger/internal/config"
	"drink-ledger/internal/database"
	"drink-ledger/internal/router"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		fatal(logger, "init database", err)
	}

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		fatal(logger, "migrate database", err)
	}

	store, err := newBlacklistStore(cfg, db)
	if err != nil {
		fatal(logger, "init blacklist", err)
	}

	// setup router
	r := router.SetupRouter(cfg, router.NewServices(cfg, db, store), logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	logger.Info("server listening",
		"addr", addr,
		"database", cfg.Database.Driver,
		"blacklist", cfg.Blacklist.Backend,
	)
	if err := r.Run(addr); err != nil {
		fatal(logger, "run server", err)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// newBlacklistStore 按 blacklist.backend 选择 token 黑名单存储
func newBlacklistStore(cfg *config.Config, db *gorm.DB) (blacklist.Store, error) {
	switch cfg.Blacklist.Backend {
	case "database":
		return blacklist.NewDBStore(db), nil
	case "", "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
		}
		return blacklist.NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("unsupported blacklist backend %q", cfg.Blacklist.Backend)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
