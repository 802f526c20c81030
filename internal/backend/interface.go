package backend

import (
	"stockflow/internal/amqp"
	"stockflow/internal/ports"
	"stockflow/internal/services"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// Result is an opened store with the service built on top of it.
type Result struct {
	Store ports.RecordStore
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher *amqp.Client
	Service   *services.InventoryService
	Cleanup   CleanupFunc
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory specific: records.csv in this directory seeds the store.
	DataDirectory string

	// Sync publishing, optional for every backend.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
