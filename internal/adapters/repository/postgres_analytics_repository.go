package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var _ domain.AnalyticsRepository = (*PostgresAnalyticsRepository)(nil)

type PostgresAnalyticsRepository struct {
	db *sqlx.DB
}

func NewPostgresAnalyticsRepository(db *sqlx.DB) *PostgresAnalyticsRepository {
	return &PostgresAnalyticsRepository{db: db}
}

type analyticsRow struct {
	Document []byte `db:"document"`
	Version  int    `db:"version"`
}

func (r *PostgresAnalyticsRepository) Get(ctx context.Context, userID string) (*domain.AnalyticsRecord, error) {
	var row analyticsRow
	err := r.db.GetContext(ctx, &row, `SELECT document, version FROM user_analytics WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAnalyticsNotFound
		}
		return nil, fmt.Errorf("repository: get analytics failed: %w", err)
	}

	return decodeRecord(userID, row.Version, row.Document)
}

func (r *PostgresAnalyticsRepository) Save(ctx context.Context, record *domain.AnalyticsRecord) error {
	doc, err := encodeRecord(record)
	if err != nil {
		return err
	}

	var res sql.Result
	if record.Version == 0 {
		res, err = r.db.ExecContext(ctx, `
			INSERT INTO user_analytics (user_id, document, version, updated_at)
			VALUES ($1, $2, 1, NOW())
			ON CONFLICT (user_id) DO NOTHING`,
			record.UserID, doc)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE user_analytics
			SET document = $1, version = version + 1, updated_at = NOW()
			WHERE user_id = $2 AND version = $3`,
			doc, record.UserID, record.Version)
	}
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("repository: save analytics failed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: save analytics failed: %w", err)
	}
	if affected == 0 {
		return domain.ErrAnalyticsConflict
	}

	record.Version++
	return nil
}

func (r *PostgresAnalyticsRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM user_analytics ORDER BY user_id`); err != nil {
		return nil, fmt.Errorf("repository: list analytics owners failed: %w", err)
	}
	return ids, nil
}
