// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/mfierro/gastos/internal/model"
)

// Storage defines the contract for the expense persistence layer. Upserts
// are idempotent on the record WID; a record never resides in both the
// confirmed and pending tables at once.
type Storage interface {
	// Write path
	UpsertConfirmed(ctx context.Context, rec *model.ExpenseRecord) error
	UpsertPending(ctx context.Context, rec *model.ExpenseRecord) error
	Promote(ctx context.Context, wid string, category model.Category) error

	// Read path
	ListConfirmed(ctx context.Context, limit int) ([]model.ExpenseRecord, error)
	GetConfirmed(ctx context.Context, wid string) (*model.ExpenseRecord, error)
	ListPending(ctx context.Context) ([]model.ExpenseRecord, error)
	Summary(ctx context.Context) (*model.Summary, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Classifier turns raw message text into a classification result. It is
// total: classification failures degrade to a fallback result instead of an error.
type Classifier interface {
	Classify(ctx context.Context, body string) model.ClassificationResult
}

// Publisher broadcasts confirmation events. Delivery is best effort and
// failures must never fail the enclosing envelope processing.
type Publisher interface {
	Publish(ctx context.Context, event model.ConfirmationEvent)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
