package backend

import (
	"context"
	"fmt"

	"orcamentos/internal/amqp"
	"orcamentos/internal/catalog"
	"orcamentos/internal/log"
	"orcamentos/internal/services"
	"orcamentos/internal/storage"
)

// amqpDialAttempts bounds the startup retries against the broker.
const amqpDialAttempts = 3

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

// CreateBackend opens the configured KV and builds the quote service on
// top of it. A SQLite database that cannot be opened is logged and the
// service runs in memory only.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		kv    storage.KV
		ready ReadyFunc
	)
	switch config.Type {
	case SQLiteBackend:
		sqliteKV, err := storage.NewSQLiteKV(config.SQLiteDBPath)
		if err != nil {
			f.logger.Error("SQLite unavailable, state will not be persisted",
				log.FieldError, err, "db_path", config.SQLiteDBPath)
			ready = func(context.Context) error { return fmt.Errorf("sqlite unavailable: %w", err) }
		} else {
			kv = sqliteKV
			ready = sqliteKV.Ping
			f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		}
	case MemoryBackend:
		kv = storage.NewMemoryKV()
		ready = func(context.Context) error { return nil }
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	var events services.EventPublisher
	if config.AMQPURL != "" {
		client, err := amqp.Dial(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue, amqpDialAttempts)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			events = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store := storage.NewStore(kv, f.logger)
	svc := services.NewQuoteService(ctx, store, events, services.Options{
		DeleteDelay:  config.DeleteDelay,
		RestoreDelay: config.RestoreDelay,
		Generator:    catalog.NewGenerator(dataDir),
		Logger:       f.logger,
	})

	f.logger.Info("Quote service ready",
		"backend", config.Type.String(),
		"persistent", kv != nil,
		"amqp_enabled", events != nil)

	return &BackendResult{
		Service: svc,
		Ready:   ready,
		Cleanup: svc.Close,
	}, nil
}
