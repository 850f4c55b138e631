package backend

import (
	"context"
	"time"

	"wisetogether/internal/services"
	"wisetogether/internal/store"
)

// Backend bundles the ports the services are built on.
type Backend struct {
	Transactions store.TransactionStore
	Accounts     store.SharedAccountStore // cached
	Profiles     store.ProfileStore       // cached
	Publisher    services.EventPublisher  // nil when AMQP is disabled

	ready func(ctx context.Context) error
}

// Ready reports whether the underlying store is reachable.
func (b *Backend) Ready(ctx context.Context) error {
	if b.ready == nil {
		return nil
	}
	return b.ready(ctx)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend *Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Lookup cache
	LookupCacheTTL  time.Duration
	LookupCacheSize int

	// Event publishing, optional
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

// String implements fmt.Stringer
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
