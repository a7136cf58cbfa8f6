package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/koutei/internal/model"
)

// PostgresBaselineRepo はPostgreSQLを使用したベースラインリポジトリ。
type PostgresBaselineRepo struct {
	db *sql.DB
}

// NewPostgresBaselineRepo はPostgresBaselineRepoを生成する。
func NewPostgresBaselineRepo(db *sql.DB) *PostgresBaselineRepo {
	return &PostgresBaselineRepo{db: db}
}

// CreateSnapshot はベースラインと所属タスクの日程を同一トランザクションで保存する。
// リベースライン適用前の工程を履歴として残すために使う。
func (r *PostgresBaselineRepo) CreateSnapshot(ctx context.Context, baseline *model.Baseline, tasks []*model.BaselineTask) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO baselines (id, project_id, note, created_at)
		 VALUES ($1, $2, $3, $4)`,
		baseline.ID, baseline.ProjectID, baseline.Note, baseline.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert baseline: %w", err)
	}

	for _, bt := range tasks {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO baseline_tasks (baseline_id, task_id, start_date, end_date, status)
			 VALUES ($1, $2, $3, $4, $5)`,
			baseline.ID, bt.TaskID, bt.StartDate, bt.EndDate, string(bt.Status),
		)
		if err != nil {
			return fmt.Errorf("failed to insert baseline task: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// compile-time interface check
var _ BaselineRepository = (*PostgresBaselineRepo)(nil)
