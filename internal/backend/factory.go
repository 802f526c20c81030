package backend

import (
	"context"
	"errors"
	"fmt"

	"stockflow/internal/amqp"
	"stockflow/internal/log"
	"stockflow/internal/ports"
	"stockflow/internal/services"
	"stockflow/internal/storage"
	"stockflow/internal/storage/memory"
)

// Factory opens record stores from configuration.
type Factory struct {
	logger *log.Logger
	// dial is swapped in tests.
	dial func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{
		logger: logger.WithComponent(log.ComponentStorage),
		dial:   amqp.NewClient,
	}
}

// Create opens the configured store. With publish set, an AMQP client is
// attached when configured; failing to reach the broker only disables sync.
func (f *Factory) Create(ctx context.Context, cfg Config, publish bool) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		store   ports.RecordStore
		cleanup []func() error
	)
	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		store = repo
		cleanup = append(cleanup, repo.Close)
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case MemoryBackend:
		dataDir := cfg.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		store = memory.NewFromFiles(dataDir)
		f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dataDir)
	}

	res := &Result{Store: store}

	var publisher services.Publisher
	if publish && cfg.AMQPURL != "" {
		client, err := f.dial(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			res.Publisher = client
			publisher = client
			cleanup = append(cleanup, client.Close)
		}
	}

	res.Service = services.NewInventoryService(store, publisher)
	res.Cleanup = func() error {
		var errs []error
		for i := len(cleanup) - 1; i >= 0; i-- {
			errs = append(errs, cleanup[i]())
		}
		return errors.Join(errs...)
	}
	return res, nil
}
