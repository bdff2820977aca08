package cmd

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/facemark/facemark/internal/config"
	"github.com/facemark/facemark/internal/extract"
	"github.com/facemark/facemark/internal/gallery"
	"github.com/facemark/facemark/internal/gallery/mock"
	"github.com/facemark/facemark/internal/gallery/postgres"
	"github.com/facemark/facemark/internal/imagestore"
	"github.com/facemark/facemark/internal/index"
	"github.com/facemark/facemark/internal/service"
)

// stack is the wired application: config, store, extractor, index, and
// service. Commands build it once and share the pieces they need.
type stack struct {
	cfg       *config.Config
	store     gallery.Store
	pool      *postgres.Pool // nil when running on the in-memory store
	images    *imagestore.Store
	publisher *index.Publisher
	rebuilder *index.Rebuilder
	service   *service.Service
	logger    *zap.Logger
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("LOG_DEVELOPMENT") == "true" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// initStack loads config and wires the full service. With inMemory set, or
// when DATABASE_URL is unset, the gallery lives in process memory and is
// lost on exit, which is only useful for demos and development.
func initStack(inMemory bool) (*stack, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	cfg := config.Load()

	var store gallery.Store
	var pool *postgres.Pool
	switch {
	case !inMemory && cfg.Database.URL != "":
		pool, err = postgres.Initialize(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		store = postgres.NewStore(pool)
		logger.Info("using PostgreSQL gallery store")
	case inMemory:
		store = mock.NewStore()
		logger.Warn("using in-memory gallery store, data is lost on exit")
	default:
		return nil, errors.New("DATABASE_URL environment variable is required (or pass --in-memory)")
	}

	images, err := imagestore.New(cfg.ImageStore.Dir)
	if err != nil {
		return nil, err
	}

	detector, err := extract.NewDetector(cfg.Extractor.CascadeFile)
	if err != nil {
		logger.Warn("face cascade unavailable, extraction falls back to centered crops",
			zap.String("file", cfg.Extractor.CascadeFile), zap.Error(err))
		detector = nil
	}

	var extractor extract.Extractor
	switch cfg.Extractor.Mode {
	case index.ModeClassifier:
		extractor = extract.NewPatchExtractor(detector)
	case index.ModeVector:
		extractor = extract.NewHistogramExtractor(detector)
	default:
		return nil, fmt.Errorf("unknown EXTRACTOR_MODE %q", cfg.Extractor.Mode)
	}

	publisher := index.NewPublisher()
	builder := index.NewBuilder(store, cfg.Extractor.Mode, logger).
		WithDiskFallback(images, extractor)
	rebuilder := index.NewRebuilder(builder, publisher, logger)
	svc := service.New(store, images, extractor, cfg.Extractor.Mode,
		cfg.ModeThresholds(cfg.Extractor.Mode), publisher, rebuilder, logger)

	return &stack{
		cfg:       cfg,
		store:     store,
		pool:      pool,
		images:    images,
		publisher: publisher,
		rebuilder: rebuilder,
		service:   svc,
		logger:    logger,
	}, nil
}

// Close releases the database pool and flushes buffered log entries.
func (s *stack) Close() {
	if s.pool != nil {
		if err := s.pool.Close(); err != nil {
			s.logger.Warn("failed to close database pool", zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}
