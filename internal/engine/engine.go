// Package engine implements the rule lifecycle: proposals and their review,
// rule versioning, scope governance and the enhancement track.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Veraticus/rulesmith/internal/common"
	"github.com/Veraticus/rulesmith/internal/service"
)

// Engine coordinates every lifecycle operation over a single store.
// Each mutating operation runs in one transaction.
type Engine struct {
	storage        service.Storage
	metrics        *Metrics
	now            func() time.Time
	newID          func() string
	conflictExempt map[string]bool
}

// Config holds configuration options for the lifecycle engine.
type Config struct {
	// Registerer receives the engine's collectors. Nil leaves them unregistered.
	Registerer prometheus.Registerer
	Now        func() time.Time
	NewID      func() string
	// ConflictExemptTypes lists rule types that may coexist at overlapping scopes.
	ConflictExemptTypes []string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ConflictExemptTypes: []string{"enhancement"},
	}
}

// New creates a lifecycle engine with the default configuration.
func New(storage service.Storage) *Engine {
	return NewWithConfig(storage, DefaultConfig())
}

// NewWithConfig creates a lifecycle engine with custom configuration.
func NewWithConfig(storage service.Storage, config Config) *Engine {
	e := &Engine{
		storage:        storage,
		metrics:        NewMetrics(config.Registerer),
		now:            config.Now,
		newID:          config.NewID,
		conflictExempt: make(map[string]bool, len(config.ConflictExemptTypes)),
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	for _, t := range config.ConflictExemptTypes {
		e.conflictExempt[t] = true
	}
	return e
}

// withTx runs fn inside a transaction, committing only if fn succeeds.
func (e *Engine) withTx(ctx context.Context, fn func(tx service.Transaction) error) error {
	tx, err := e.storage.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// logFailure records an operation error at a level matching its cause.
func logFailure(ctx context.Context, err error, msg string, fields common.Fields) {
	switch {
	case errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrInvalidTransition),
		errors.Is(err, common.ErrScopeViolation),
		errors.Is(err, common.ErrInvalidScope),
		errors.Is(err, common.ErrConflict),
		errors.Is(err, common.ErrStaleRule):
		if fields == nil {
			fields = common.Fields{}
		}
		fields["error"] = err.Error()
		common.LogDebug(ctx, msg, fields)
	default:
		common.LogError(ctx, err, msg, fields)
	}
}
