// Package app is the composition root shared by the HTTP server and the Lambda entry point.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/makoye224/cwru-courses-backend/internal/config"
	"github.com/makoye224/cwru-courses-backend/internal/db"
	dbDynamo "github.com/makoye224/cwru-courses-backend/internal/db/dynamo"
	dbMemory "github.com/makoye224/cwru-courses-backend/internal/db/memory"
	dbValkey "github.com/makoye224/cwru-courses-backend/internal/db/valkey"
	"github.com/makoye224/cwru-courses-backend/internal/metrics"
	"github.com/makoye224/cwru-courses-backend/internal/repository/corpuscache"
	courserepo "github.com/makoye224/cwru-courses-backend/internal/repository/course"
	chiTransport "github.com/makoye224/cwru-courses-backend/internal/transport/chi"
	courseuc "github.com/makoye224/cwru-courses-backend/internal/usecase/course"
	healthuc "github.com/makoye224/cwru-courses-backend/internal/usecase/health"
	searchuc "github.com/makoye224/cwru-courses-backend/internal/usecase/search"
	"github.com/makoye224/cwru-courses-backend/internal/validate"
)

// App is a fully wired service.
type App struct {
	Handler http.Handler
	store   db.Store
}

// New opens the configured store, waits for it and wires every layer on top.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	handler, err := NewHandler(store, cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &App{Handler: handler, store: store}, nil
}

// Close releases the store.
func (a *App) Close() {
	a.store.Close()
}

// OpenStore builds the document store selected by database.driver.
// redis and valkey share one implementation; both speak RESP and run Lua.
func OpenStore(ctx context.Context, cfg config.Config) (db.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverValkey, config.DriverRedis:
		s, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:     cfg.Database.Addrs,
			Username:  cfg.Database.Username,
			Password:  cfg.Database.Password,
			DB:        cfg.Database.DB,
			KeyPrefix: cfg.Storage.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("valkey: %w", err)
		}
		return s, nil
	case config.DriverDynamo:
		s, err := dbDynamo.NewStore(ctx, dbDynamo.Config{
			Region:       cfg.Database.Region,
			Table:        cfg.Database.Table,
			Endpoint:     cfg.Database.Endpoint,
			ScanSegments: cfg.Database.ScanSegments,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamo: %w", err)
		}
		return s, nil
	case config.DriverMemory:
		return dbMemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// NewHandler wires repositories, use cases and the router on top of store.
func NewHandler(store db.Store, cfg config.Config, logger *zap.Logger) (http.Handler, error) {
	metrics.RegisterCatalogMetrics()

	repo := courserepo.New(store)

	matcher, err := newMatcher(cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("search matcher: %w", err)
	}

	var corpus searchuc.CorpusReader = repo
	courses := courseuc.New(repo, validate.New(), logger).
		WithCreateMode(courseuc.CreateMode(cfg.Catalog.CreateMode)).
		WithRetry(cfg.Catalog.MaxAttempts, time.Duration(cfg.Catalog.RetryBackoffMs)*time.Millisecond)
	if ttl := time.Duration(cfg.Search.CorpusCacheTTLSec) * time.Second; ttl > 0 {
		cache := corpuscache.New(repo, ttl)
		corpus = cache
		courses = courses.WithInvalidator(cache)
	}

	search := searchuc.New(corpus, matcher, logger)
	health := healthuc.New(store, time.Duration(cfg.Database.HealthTimeoutMs)*time.Millisecond)

	logger.Info("Catalog wired",
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("create_mode", cfg.Catalog.CreateMode),
		zap.String("search_strategy", matcher.Name()),
		zap.Int("corpus_cache_ttl_sec", cfg.Search.CorpusCacheTTLSec),
	)

	server := chiTransport.NewServer(courses, search, health, logger)
	return chiTransport.NewRouter(server, chiTransport.RouterOptions{
		Logger:  logger,
		APIKeys: cfg.Auth.APIKeys,
	}), nil
}

func newMatcher(cfg config.SearchConfig) (searchuc.Matcher, error) {
	threshold := searchuc.DefaultThreshold
	if cfg.Threshold != nil {
		threshold = *cfg.Threshold
	}
	m, err := searchuc.NewMatcher(cfg.Strategy, cfg.Similarity, threshold)
	if err != nil {
		return nil, err //nolint:wrapcheck // caller wraps
	}
	if sm, ok := m.(searchuc.ScoredMatcher); ok && !cfg.Weights.IsZero() {
		w := cfg.Weights
		sm.Weights = searchuc.Weights{
			Title:       w.Title,
			Description: w.Description,
			Alias:       w.Alias,
			Review:      w.Review,
			Professor:   w.Professor,
			Major:       w.Major,
		}
		return sm, nil
	}
	return m, nil
}
