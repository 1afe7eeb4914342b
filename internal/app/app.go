// Package app assembles the screening pipeline from configuration. The HTTP
// server and the screener CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/fadilmartias/scandid/internal/config"
	"github.com/fadilmartias/scandid/internal/leaderboard"
	"github.com/fadilmartias/scandid/internal/logger"
	"github.com/fadilmartias/scandid/internal/metrics"
	"github.com/fadilmartias/scandid/internal/model"
	"github.com/fadilmartias/scandid/internal/repository"
	"github.com/fadilmartias/scandid/internal/scoring"
	"github.com/fadilmartias/scandid/internal/service"
	"github.com/fadilmartias/scandid/internal/usecase"
	"github.com/fadilmartias/scandid/internal/util"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Settings groups the configuration the pipeline is built from.
type Settings struct {
	App     *config.AppConfig
	DB      *config.DBConfig
	Store   *config.StoreConfig
	Scoring *config.ScoringConfig
	Groq    *config.GroqConfig
	Gemini  *config.GeminiConfig
}

// LoadSettings reads every config section from the environment.
func LoadSettings() Settings {
	return Settings{
		App:     config.LoadAppConfig(),
		DB:      config.LoadDBConfig(),
		Store:   config.LoadStoreConfig(),
		Scoring: config.LoadScoringConfig(),
		Groq:    config.LoadGroqConfig(),
		Gemini:  config.LoadGeminiConfig(),
	}
}

// Container holds the wired pipeline and the resources it owns.
type Container struct {
	Jobs      *config.JobCatalog
	Board     *leaderboard.Board
	Metrics   *metrics.Manager
	Screening *usecase.ScreeningUsecase
	Logger    *zap.Logger

	breakers []breaker
	closers  []func() error
}

// breaker is implemented by providers that stop calling upstream after
// repeated failures.
type breaker interface {
	CircuitBreakerStatus() (consecutiveErrors int, isOpen bool)
}

// Ready reports false while any provider circuit breaker is open.
func (c *Container) Ready() bool {
	for _, b := range c.breakers {
		if _, open := b.CircuitBreakerStatus(); open {
			return false
		}
	}
	return true
}

// Build validates settings and wires the store, scorers and usecase.
func Build(ctx context.Context, s Settings, log *zap.Logger) (*Container, error) {
	if err := config.ValidateScoring(s.Scoring, s.Groq, s.Gemini); err != nil {
		return nil, err
	}

	c, cache, err := open(ctx, s, log)
	if err != nil {
		return nil, err
	}

	embedder, err := c.embedder(ctx, s)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	reporter, err := c.reporter(ctx, s)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	for _, p := range []any{embedder, reporter} {
		if b, ok := p.(breaker); ok {
			c.breakers = append(c.breakers, b)
		}
	}

	similarity := scoring.NewSimilarityScorer(embedder,
		scoring.WithVectorCache(cache),
		scoring.WithEmbeddingTimeout(s.Scoring.EmbeddingTimeout),
		scoring.WithSimilarityLogger(c.Logger),
	)

	c.Screening = usecase.NewScreeningUsecase(
		c.Jobs,
		&util.PDFExtractor{Logger: c.Logger},
		similarity,
		reporter,
		c.Board,
		c.Metrics,
		c.Logger,
	)

	c.Logger.Info("screening pipeline ready",
		zap.String("store", s.Store.Driver),
		zap.String("embedding", similarity.Model()),
		zap.String("report", reporter.Name()),
		zap.Int("roles", len(c.Jobs.List())),
	)
	return c, nil
}

// BuildLeaderboard opens the job catalogue and the result store only. It
// needs no model credentials, so read-only tools can use it.
func BuildLeaderboard(ctx context.Context, s Settings, log *zap.Logger) (*Container, error) {
	c, _, err := open(ctx, s, log)
	return c, err
}

func open(ctx context.Context, s Settings, log *zap.Logger) (*Container, scoring.VectorCache, error) {
	if err := config.ValidateStore(s.Store); err != nil {
		return nil, nil, err
	}

	jobs, err := config.LoadJobCatalog(s.App.JobsFile)
	if err != nil {
		return nil, nil, err
	}

	c := &Container{
		Jobs:    jobs,
		Metrics: metrics.NewManager(metrics.WithRuntimeCollectors()),
		Logger:  logger.OrNop(log),
	}
	for _, w := range config.EnvWarnings() {
		c.Logger.Warn("invalid environment value, using default",
			zap.String("key", w.Key),
			zap.String("value", w.Value),
			zap.String("reason", w.Reason),
			zap.String("default", w.Fallback),
		)
	}

	store, cache, err := c.openStore(ctx, s)
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}

	c.Board = leaderboard.NewBoard(store,
		leaderboard.WithMetrics(c.Metrics),
		leaderboard.WithLogger(c.Logger),
		leaderboard.WithRetry(s.Store.MaxRetries, 100*time.Millisecond),
	)
	return c, cache, nil
}

// Close releases database and client connections.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) openStore(ctx context.Context, s Settings) (repository.ResultStore, scoring.VectorCache, error) {
	switch s.Store.Driver {
	case config.StoreCSV:
		store, err := repository.NewCSVStore(s.Store.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, scoring.NewMemoryVectorCache(), nil

	case config.StorePostgres:
		db, err := ConnectDB(s.DB, s.App)
		if err != nil {
			return nil, nil, err
		}
		c.closers = append(c.closers, func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
		return repository.NewSubmissionRecordRepository(db), repository.NewJobEmbeddingRepository(db), nil

	case config.StoreFirestore:
		client, err := firestore.NewClient(ctx, s.Store.FirestoreProject)
		if err != nil {
			return nil, nil, apperr.Wrap("app.open_store", apperr.ErrConfig, fmt.Errorf("create firestore client: %w", err))
		}
		c.closers = append(c.closers, client.Close)
		return repository.NewFirestoreStore(client, s.Store.FirestoreCollection), scoring.NewMemoryVectorCache(), nil

	default:
		return repository.NewMemoryStore(), scoring.NewMemoryVectorCache(), nil
	}
}

func (c *Container) embedder(ctx context.Context, s Settings) (scoring.Embedder, error) {
	if s.Scoring.EmbeddingProvider == config.ProviderHashing {
		return service.NewHashingEmbedder(s.Scoring.HashingDimensions)
	}
	return service.NewGeminiService(ctx, s.Gemini, s.Scoring, c.Logger)
}

func (c *Container) reporter(ctx context.Context, s Settings) (scoring.ReportGenerator, error) {
	if s.Scoring.ReportProvider == config.ProviderGemini {
		return service.NewGeminiService(ctx, s.Gemini, s.Scoring, c.Logger)
	}
	return service.NewGroqService(s.Groq, s.Scoring, c.Logger)
}

// ConnectDB opens postgres, sizes the pool for the environment and migrates
// the result and embedding tables.
func ConnectDB(dbc *config.DBConfig, ac *config.AppConfig) (*gorm.DB, error) {
	return connectDB(postgres.Open(dbc.DSN()), ac)
}

// connectDB closes the pool it opened when setup fails.
func connectDB(dialector gorm.Dialector, ac *config.AppConfig) (*gorm.DB, error) {
	const op = "app.connect_db"

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, apperr.Wrap(op, apperr.ErrConfig, fmt.Errorf("could not connect to database: %w", err))
	}
	pgDB, err := db.DB()
	if err != nil {
		return nil, apperr.Wrap(op, apperr.ErrConfig, fmt.Errorf("could not get database instance: %w", err))
	}
	if !ac.IsProduction() {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		pgDB.Close()
		return nil, apperr.Wrap(op, apperr.ErrConfig, fmt.Errorf("enable pgvector: %w", err))
	}
	if err := db.AutoMigrate(&model.SubmissionRecord{}, &model.JobEmbedding{}); err != nil {
		pgDB.Close()
		return nil, apperr.Wrap(op, apperr.ErrConfig, fmt.Errorf("migration failed: %w", err))
	}
	return db, nil
}
