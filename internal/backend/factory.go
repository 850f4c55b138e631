package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wisetogether/internal/amqp"
	"wisetogether/internal/cache"
	"wisetogether/internal/log"
	"wisetogether/internal/store"
	"wisetogether/internal/store/memory"
	"wisetogether/internal/storage"
)

const cacheCleanupInterval = 10 * time.Minute

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend. The lookup cache runs
// until ctx is done or Cleanup is called.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		st    store.Store
		ready func(context.Context) error
	)
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		version, _, err := storage.SchemaVersion(config.SQLiteDBPath)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to check SQLite schema: %w", err)
		}
		st, ready = repo, repo.Ping
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath, "schema_version", version)
	case MemoryBackend:
		st = memory.New()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	ttl := config.LookupCacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	dir := cache.NewDirectory(st, st, config.LookupCacheSize, ttl)
	manager := cache.NewManager(f.logger)
	for _, c := range dir.Cleaners() {
		manager.Register(c)
	}
	manager.StartCleanup(ctx, cacheCleanupInterval)

	b := &Backend{
		Transactions: st,
		Accounts:     dir,
		Profiles:     dir,
		ready:        ready,
	}

	// Publishing is optional: the API keeps working without a broker.
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		c, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			amqpClient = c
			b.Publisher = c
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	cleanup := func() error {
		manager.Stop()
		var errs []error
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				errs = append(errs, fmt.Errorf("amqp: %w", err))
			}
		}
		if err := st.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
		return errors.Join(errs...)
	}

	return &BackendResult{Backend: b, Cleanup: cleanup}, nil
}
