package courses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/makoye224/cwru-courses-backend/internal/app"
	"github.com/makoye224/cwru-courses-backend/internal/config"
	"github.com/makoye224/cwru-courses-backend/internal/db"
	domcourse "github.com/makoye224/cwru-courses-backend/internal/domain/course"
	"github.com/makoye224/cwru-courses-backend/internal/repository/corpuscache"
	courserepo "github.com/makoye224/cwru-courses-backend/internal/repository/course"
	courseuc "github.com/makoye224/cwru-courses-backend/internal/usecase/course"
	healthuc "github.com/makoye224/cwru-courses-backend/internal/usecase/health"
	searchuc "github.com/makoye224/cwru-courses-backend/internal/usecase/search"
	"github.com/makoye224/cwru-courses-backend/internal/validate"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for fakes in tests.
type courseUseCase interface {
	Create(ctx context.Context, p domcourse.CoursePayload) (domcourse.Course, error)
	Get(ctx context.Context, key domcourse.Key) (domcourse.Course, error)
	List(ctx context.Context) ([]domcourse.Course, error)
	ListByCreator(ctx context.Context, createdBy string) ([]domcourse.Course, error)
	Delete(ctx context.Context, key domcourse.Key) error
	AddReview(ctx context.Context, key domcourse.Key, p domcourse.ReviewPayload) (domcourse.Course, domcourse.Review, error)
	UpdateReview(
		ctx context.Context, key domcourse.Key, reviewID string, p domcourse.ReviewPayload,
	) (domcourse.Course, domcourse.Review, error)
	DeleteReview(ctx context.Context, key domcourse.Key, reviewID string) (domcourse.Course, error)
}

type searchUseCase interface {
	Search(ctx context.Context, query string) ([]domcourse.Course, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the catalog SDK entry point.
type Client struct {
	store     db.Store
	courses   courseUseCase
	search    searchUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("courses: storage required (use WithValkey, WithRedis, WithDynamo or WithMemory)")
	}

	store, err := app.OpenStore(ctx, storeConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("courses: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("courses: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, cfg, obs), nil
}

func storeConfig(cfg *clientConfig) config.Config {
	return config.Config{
		Database: config.DatabaseConfig{
			Driver:       cfg.driver,
			Addrs:        cfg.addrs,
			Password:     cfg.password,
			Region:       cfg.region,
			Table:        cfg.table,
			Endpoint:     cfg.endpoint,
			ScanSegments: 1,
		},
		Storage: config.StorageConfig{KeyPrefix: cfg.prefix},
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	repo := courserepo.New(store)

	mode := courseuc.CreateReject
	if cfg.upsert {
		mode = courseuc.CreateUpsert
	}
	courses := courseuc.New(repo, validate.New(), zap.NewNop()).WithCreateMode(mode)
	if cfg.maxAttempts > 0 {
		courses = courses.WithRetry(cfg.maxAttempts, 10*time.Millisecond)
	}

	var corpus searchuc.CorpusReader = repo
	if cfg.cacheTTL > 0 {
		cache := corpuscache.New(repo, cfg.cacheTTL)
		corpus = cache
		courses = courses.WithInvalidator(cache)
	}

	var matcher searchuc.Matcher = searchuc.TieredMatcher{}
	if cfg.scored {
		matcher = searchuc.NewScoredMatcher()
	}

	return &Client{
		store:     store,
		courses:   courses,
		search:    searchuc.New(corpus, matcher, zap.NewNop()),
		healthSvc: healthuc.New(store, 0),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
