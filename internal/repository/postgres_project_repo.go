package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/koutei/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	project := &model.Project{}
	var customContractors pq.StringArray
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, custom_contractors,
		        project_start_date, project_current_date, project_duration_months, archived
		 FROM projects WHERE id = $1`,
		id,
	).Scan(
		&project.ID, &project.Name, &project.Description, &customContractors,
		&project.ProjectStartDate, &project.ProjectCurrentDate,
		&project.ProjectDurationMonths, &project.Archived,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	project.CustomContractors = []string(customContractors)
	return project, nil
}

// ShiftCurrentDate はproject_current_dateをdeltaDays日ずらす。
// リベースラインで全タスクをずらした際、「今日」の基準を新ベースラインに揃えるために使う。
func (r *PostgresProjectRepo) ShiftCurrentDate(ctx context.Context, projectID string, deltaDays int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE projects
		 SET project_current_date = project_current_date + $2 * INTERVAL '1 day'
		 WHERE id = $1`,
		projectID, deltaDays,
	)
	if err != nil {
		return fmt.Errorf("failed to shift project current date: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
