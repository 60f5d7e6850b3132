package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"techticks-chat/internal/chatapi"
	"techticks-chat/internal/config"
	"techticks-chat/internal/db"
	"techticks-chat/internal/repository"
	"techticks-chat/internal/service"
)

// App agrupa las piezas que comparten la CLI y el gateway web.
type App struct {
	Session      *service.SessionStore
	Conversation *service.Conversation
	Catalog      *service.CatalogService
	API          *chatapi.HTTPClient

	closers []func()
}

// Build abre el backend de estado elegido, restaura la identidad y enlaza cliente y servicios.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{}

	kv, err := a.openKVStore(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Session = service.NewSessionStore(kv, logger)
	a.Session.Restore(ctx)

	a.API = chatapi.NewHTTPClient(cfg.ChatAPIBaseURL, cfg.ChatAPITimeout, a.Session, logger)
	a.Conversation = service.NewConversation(a.API, a.Session, logger)
	a.closers = append(a.closers, a.Conversation.Close)
	a.Catalog = service.NewCatalogService(a.API, logger)
	return a, nil
}

func (a *App) openKVStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repository.KVStore, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		return repository.NewMemoryKVStore(), nil

	case config.StorageFile:
		dir := cfg.StateDir
		if dir == "" {
			d, err := repository.DefaultStateDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		store := repository.NewFileKVStore(dir, cfg.Profile)
		logger.Info("identity state file", zap.String("path", store.Path()))
		return store, nil

	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, func() { _ = client.Close() })
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(ctxPing).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		store, err := repository.NewRedisKVStore(client, cfg.Profile)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.StoragePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := db.Ping(ctx, pool); err != nil {
			return nil, fmt.Errorf("db ping: %w", err)
		}
		store := repository.NewPgKVStore(pool, cfg.Profile)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure client_state schema: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// Close libera conexiones en orden inverso al de apertura.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
