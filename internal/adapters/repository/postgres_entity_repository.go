package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/jmoiron/sqlx"
)

var (
	_ domain.EntityRepository   = (*PostgresEntityRepository)(nil)
	_ domain.CategoryRepository = (*PostgresCategoryRepository)(nil)
)

// entityTables maps every kind to its table. Table names are never taken from input.
var entityTables = map[domain.EntityKind]string{
	domain.KindHabit:   "habits",
	domain.KindTask:    "tasks",
	domain.KindRoutine: "routines",
}

const entityColumns = `id, user_id, name, category_id, cadence, target_completions,
	completed_count, is_completed_today, current_streak, longest_streak,
	last_completed_at, last_activity_at, version, created_at, updated_at, deleted_at`

type PostgresEntityRepository struct {
	db *sqlx.DB
}

func NewPostgresEntityRepository(db *sqlx.DB) *PostgresEntityRepository {
	return &PostgresEntityRepository{db: db}
}

func tableFor(kind domain.EntityKind) (string, error) {
	table, ok := entityTables[kind]
	if !ok {
		return "", domain.ErrInvalidEntityKind
	}
	return table, nil
}

func (r *PostgresEntityRepository) GetByID(ctx context.Context, kind domain.EntityKind, id string) (*domain.Entity, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var e domain.Entity
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND deleted_at IS NULL`, entityColumns, table)
	if err := r.db.GetContext(ctx, &e, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgCode(err) == codeInvalidTextRepresentation {
			return nil, domain.ErrEntityNotFound
		}
		return nil, fmt.Errorf("repository: get %s failed: %w", kind, err)
	}

	e.Kind = kind
	return &e, nil
}

func (r *PostgresEntityRepository) SaveCompletion(ctx context.Context, e *domain.Entity) error {
	table, err := tableFor(e.Kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET
			completed_count = $1, is_completed_today = $2,
			current_streak = $3, longest_streak = $4,
			last_completed_at = $5, last_activity_at = $6,
			updated_at = NOW(), version = version + 1
		WHERE id = $7 AND version = $8 AND deleted_at IS NULL
		RETURNING version, updated_at`, table)

	err = r.db.QueryRowxContext(ctx, query,
		e.CompletedCount, e.IsCompletedToday,
		e.CurrentStreak, e.LongestStreak,
		e.LastCompletedAt, e.LastActivityAt,
		e.ID, e.Version,
	).Scan(&e.Version, &e.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("repository: save %s completion failed: %w", e.Kind, err)
	}

	var exists bool
	existsQuery := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1 AND deleted_at IS NULL)`, table)
	if err := r.db.GetContext(ctx, &exists, existsQuery, e.ID); err != nil {
		return fmt.Errorf("repository: check %s existence failed: %w", e.Kind, err)
	}
	if !exists {
		return domain.ErrEntityNotFound
	}
	return domain.ErrEntityConflict
}

// ResetDaily clears the daily completion state of all three tables in one transaction.
func (r *PostgresEntityRepository) ResetDaily(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("repository: begin daily reset failed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for _, kind := range []domain.EntityKind{domain.KindHabit, domain.KindTask, domain.KindRoutine} {
		query := fmt.Sprintf(`
			UPDATE %s SET is_completed_today = FALSE, completed_count = 0,
				updated_at = NOW(), version = version + 1
			WHERE deleted_at IS NULL AND (is_completed_today OR completed_count > 0)`, entityTables[kind])

		res, err := tx.ExecContext(ctx, query)
		if err != nil {
			return 0, fmt.Errorf("repository: daily reset of %s failed: %w", kind, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("repository: commit daily reset failed: %w", err)
	}
	return total, nil
}

func (r *PostgresEntityRepository) DecayStreaks(ctx context.Context, cadence domain.Cadence, cutoff time.Time) (int64, error) {
	var total int64
	for _, kind := range []domain.EntityKind{domain.KindHabit, domain.KindTask, domain.KindRoutine} {
		query := fmt.Sprintf(`
			UPDATE %s SET current_streak = 0, updated_at = NOW(), version = version + 1
			WHERE deleted_at IS NULL AND current_streak > 0 AND cadence = $1
				AND (last_completed_at IS NULL OR last_completed_at < $2)`, entityTables[kind])

		res, err := r.db.ExecContext(ctx, query, string(cadence), cutoff)
		if err != nil {
			return total, fmt.Errorf("repository: streak decay of %s failed: %w", kind, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

type PostgresCategoryRepository struct {
	db *sqlx.DB
}

func NewPostgresCategoryRepository(db *sqlx.DB) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{db: db}
}

func (r *PostgresCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	err := r.db.GetContext(ctx, &c, `SELECT id, user_id, name, created_at FROM categories WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgCode(err) == codeInvalidTextRepresentation {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("repository: get category failed: %w", err)
	}
	return &c, nil
}
