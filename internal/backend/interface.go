package backend

import (
	"context"

	"metas/internal/amqp"
	"metas/internal/services"
	"metas/internal/sheets"
	"metas/internal/worker"
)

// Backend is the data store the services run on.
type Backend = sheets.Store

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and what came up with it.
// Jobs and AMQP are nil when the backend cannot provide them; Ping is
// always set.
type BackendResult struct {
	Backend Backend
	Jobs    worker.JobStore
	AMQP    *amqp.Client
	Ping    func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Publisher returns the broker as a services.Publisher, or an untyped nil
// when no broker is connected so services can detect that sync is off.
func (r *BackendResult) Publisher() services.Publisher {
	if r == nil || r.AMQP == nil {
		return nil
	}
	return r.AMQP
}

// JobRecorder returns the job store as a services.JobRecorder, or nil.
func (r *BackendResult) JobRecorder() services.JobRecorder {
	if r == nil || r.Jobs == nil {
		return nil
	}
	if rec, ok := r.Jobs.(services.JobRecorder); ok {
		return rec
	}
	return nil
}

// Close runs the cleanup function, if any.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
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

	// AMQP is optional; an empty URL disables export sync
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Memory backend specific
	DataDirectory string
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
