package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrAnalyticsNotFound  = errors.New("analytics record not found")
	ErrAnalyticsConflict  = errors.New("analytics record version conflict")
	ErrAnalyticsCorrupted = errors.New("analytics record is malformed")
	ErrPersistenceFailure = errors.New("analytics persistence failure")

	ErrEntityNotFound   = errors.New("entity not found")
	ErrEntityConflict   = errors.New("entity version conflict")
	ErrCategoryNotFound = errors.New("category not found")
)

// CorruptRecordError is returned by an AnalyticsRepository when the stored
// document cannot be decoded or validated. Version is the stored revision so the
// record can be overwritten in place.
type CorruptRecordError struct {
	UserID  string
	Version int
	Err     error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("analytics record of user %s is malformed: %v", e.UserID, e.Err)
}

func (e *CorruptRecordError) Unwrap() []error {
	return []error{ErrAnalyticsCorrupted, e.Err}
}

type AnalyticsRepository interface {
	// Get returns the record of the user, ErrAnalyticsNotFound, or a *CorruptRecordError.
	Get(ctx context.Context, userID string) (*AnalyticsRecord, error)

	// Save stores the record if the stored version still equals record.Version
	// (0 means "not stored yet") and bumps record.Version on success.
	// A lost race returns ErrAnalyticsConflict.
	Save(ctx context.Context, record *AnalyticsRecord) error

	// ListUserIDs returns the owners of every stored record.
	ListUserIDs(ctx context.Context) ([]string, error)
}

type EntityRepository interface {
	// GetByID retrieves an active (non-deleted) entity of the given kind.
	GetByID(ctx context.Context, kind EntityKind, id string) (*Entity, error)

	// SaveCompletion persists the completion and streak fields of the entity.
	// Implementations must check the version to prevent lost updates.
	SaveCompletion(ctx context.Context, entity *Entity) error

	// ResetDaily clears the "completed today" state of every entity and returns the affected rows.
	ResetDaily(ctx context.Context) (int64, error)

	// DecayStreaks zeroes the current streak of entities of the cadence whose last
	// qualifying completion is older than cutoff (or missing).
	DecayStreaks(ctx context.Context, cadence Cadence, cutoff time.Time) (int64, error)
}

type CategoryRepository interface {
	// GetByID retrieves a category by its unique identifier.
	GetByID(ctx context.Context, id string) (*Category, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}
