package loader

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by Session.FindValue when no row exists for the key.
var ErrNotFound = errors.New("loader: value not found")

// StoredValue is the existing row for an (indicator, date) key.
type StoredValue struct {
	ID    int64
	Value decimal.Decimal
}

// Session is a single transactional unit of work against the store.
//
// Implementations are not safe for concurrent use. Close must be safe to call
// after Commit and must roll back anything not committed.
type Session interface {
	// IndicatorIDs returns the code -> id mapping of every known indicator.
	IndicatorIDs(ctx context.Context) (map[string]int64, error)
	// FindValue returns ErrNotFound when the key has no row.
	FindValue(ctx context.Context, indicatorID int64, date civil.Date) (StoredValue, error)
	InsertValue(ctx context.Context, indicatorID int64, date civil.Date, value decimal.Decimal) error
	UpdateValue(ctx context.Context, valueID int64, value decimal.Decimal) error

	Savepoint(ctx context.Context) error
	RollbackToSavepoint(ctx context.Context) error
	ReleaseSavepoint(ctx context.Context) error

	Commit() error
	Close() error
}

// SessionFactory opens Sessions. One Session is opened per Load call.
type SessionFactory interface {
	Begin(ctx context.Context) (Session, error)
}
