package main

import (
	"context"
	"fmt"

	"github.com/noah-isme/feedback-desk-api/internal/handler"
	"github.com/noah-isme/feedback-desk-api/internal/repository"
	"github.com/noah-isme/feedback-desk-api/pkg/cache"
	"github.com/noah-isme/feedback-desk-api/pkg/config"
	"github.com/noah-isme/feedback-desk-api/pkg/database"
)

// slotBackend is an opened persistence backend with its readiness check and release hook.
type slotBackend struct {
	store repository.SlotStore
	ready handler.ReadinessCheck
	close func() error
}

func openSlotBackend(cfg *config.Config) (*slotBackend, error) {
	switch cfg.Slots.Backend {
	case config.SlotBackendMemory, "":
		return &slotBackend{
			store: repository.NewMemorySlotStore(),
			ready: func(context.Context) error { return nil },
			close: func() error { return nil },
		}, nil
	case config.SlotBackendRedis:
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		store := repository.NewRedisSlotStore(client, cfg.Redis.Prefix)
		return &slotBackend{
			store: store,
			ready: func(ctx context.Context) error { return client.Ping(ctx).Err() },
			close: store.Close,
		}, nil
	case config.SlotBackendPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &slotBackend{store: repository.NewSQLSlotStore(db), ready: db.PingContext, close: db.Close}, nil
	case config.SlotBackendSQLite:
		db, err := database.NewSQLite(cfg.SQLite)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &slotBackend{store: repository.NewSQLSlotStore(db), ready: db.PingContext, close: db.Close}, nil
	}
	return nil, fmt.Errorf("unknown slot backend %q", cfg.Slots.Backend)
}
