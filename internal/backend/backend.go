// Package backend selects and wires the repository implementation behind the
// ledger service.
package backend

import (
	"fmt"
	"log/slog"

	"despesas/internal/amqp"
	"despesas/internal/config"
	"despesas/internal/memory"
	"despesas/internal/services"
	"despesas/internal/storage"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Type represents the configured repository backend.
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
)

func (t Type) IsValid() bool {
	return t == MemoryBackend || t == SQLiteBackend
}

// Build creates the repository and optional AMQP client named by the config
// and wires them into a ledger service. AMQP failures are non-fatal: the
// service keeps working locally and the worker catch-up scan covers the gap.
func Build(logger *slog.Logger, cfg *config.Config) (*services.LedgerService, CleanupFunc, error) {
	backendType := Type(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	var repo services.Repository
	switch backendType {
	case SQLiteBackend:
		sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		repo = sqliteRepo
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)

	case MemoryBackend:
		repo = memory.NewStore()
		logger.Info("Initialized memory backend")
	}

	var amqpClient *amqp.Client
	if backendType == SQLiteBackend && cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without mirror events", "error", err)
		} else {
			amqpClient = client
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	service := services.NewLedgerService(repo, amqpClient)
	return service, service.Close, nil
}
