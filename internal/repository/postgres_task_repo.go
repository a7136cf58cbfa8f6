package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/koutei/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

const taskColumns = `id, project_id, name, owner_roles, start_date, end_date,
	 percent_done, status, delay_reason, assigned_user_token, assigned_display_name,
	 was_shifted, last_shift_date, budget, updated_at`

// scanTask は1行をmodel.Taskに読み込む。
func scanTask(scan func(dest ...interface{}) error) (*model.Task, error) {
	task := &model.Task{}
	var ownerRoles pq.StringArray
	err := scan(
		&task.ID, &task.ProjectID, &task.Name, &ownerRoles, &task.StartDate, &task.EndDate,
		&task.PercentDone, &task.Status, &task.DelayReason, &task.AssignedUserToken,
		&task.AssignedDisplayName, &task.WasShifted, &task.LastShiftDate, &task.Budget,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.OwnerRoles = []string(ownerRoles)
	return task, nil
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`,
		id,
	)
	task, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// ListByProject はプロジェクトの全タスクをstart_date昇順で返す。
// 表示順は保存せず、常にこのソートで導出する。
func (r *PostgresTaskRepo) ListByProject(ctx context.Context, projectID string) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+`
		 FROM tasks
		 WHERE project_id = $1
		 ORDER BY start_date ASC, id ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		task, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// UpdateDates はタスクの日程を更新し、シフト済みマーカーを立てる。
// マーカー更新は冪等で、同じシフトをリトライしても安全。
func (r *PostgresTaskRepo) UpdateDates(ctx context.Context, taskID string, startDate, endDate time.Time, shiftedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET start_date = $2, end_date = $3, was_shifted = TRUE, last_shift_date = $4, updated_at = now()
		 WHERE id = $1`,
		taskID, startDate, endDate, shiftedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update task dates: %w", err)
	}
	return nil
}

// RebaseDates はタスクの日程のみを更新する（シフト済みマーカーは触らない）。
func (r *PostgresTaskRepo) RebaseDates(ctx context.Context, taskID string, startDate, endDate time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET start_date = $2, end_date = $3, updated_at = now()
		 WHERE id = $1`,
		taskID, startDate, endDate,
	)
	if err != nil {
		return fmt.Errorf("failed to rebase task dates: %w", err)
	}
	return nil
}

// UpdateProgress は進捗率・状態・遅延理由を更新する。
func (r *PostgresTaskRepo) UpdateProgress(ctx context.Context, taskID string, percent int, status model.TaskStatus, delayReason string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET percent_done = $2, status = $3, delay_reason = $4, updated_at = now()
		 WHERE id = $1`,
		taskID, percent, string(status), delayReason,
	)
	if err != nil {
		return fmt.Errorf("failed to update task progress: %w", err)
	}
	return nil
}

// ResetStatus はタスクの状態を指定値に戻す。clearDelayReasonの場合は遅延理由も消去する。
func (r *PostgresTaskRepo) ResetStatus(ctx context.Context, taskID string, status model.TaskStatus, clearDelayReason bool) error {
	var err error
	if clearDelayReason {
		_, err = r.db.ExecContext(ctx,
			`UPDATE tasks SET status = $2, delay_reason = '', updated_at = now() WHERE id = $1`,
			taskID, string(status),
		)
	} else {
		_, err = r.db.ExecContext(ctx,
			`UPDATE tasks SET status = $2, updated_at = now() WHERE id = $1`,
			taskID, string(status),
		)
	}
	if err != nil {
		return fmt.Errorf("failed to reset task status: %w", err)
	}
	return nil
}

// UpdateAssignment はタスクの担当者を更新する。
func (r *PostgresTaskRepo) UpdateAssignment(ctx context.Context, taskID, userToken, displayName string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET assigned_user_token = $2, assigned_display_name = $3, updated_at = now()
		 WHERE id = $1`,
		taskID, userToken, displayName,
	)
	if err != nil {
		return fmt.Errorf("failed to update task assignment: %w", err)
	}
	return nil
}

// Delete は指定IDのタスクを削除する。関連コメントはCASCADE削除される。
func (r *PostgresTaskRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task not found: %s", id)
	}
	return nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
