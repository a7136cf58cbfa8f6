package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/koutei/internal/model"
)

// uniqueViolation はPostgreSQLの一意性制約違反のSQLSTATEコード。
const uniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `user_token, COALESCE(project_id, ''), display_name, name_norm, role,
	 contractor_role, password_hash, last_seen, last_active_at, created_at`

// scanUser は1行をmodel.Userに読み込む。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.UserToken, &user.ProjectID, &user.DisplayName, &user.NameNorm, &user.Role,
		&user.ContractorRole, &user.PasswordHash, &user.LastSeen, &user.LastActiveAt, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// FindByIdentity は(project_id, name_norm, role)でユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByIdentity(ctx context.Context, projectID, nameNorm string, role model.Role) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE project_id = $1 AND name_norm = $2 AND role = $3`,
		projectID, nameNorm, string(role),
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by identity: %w", err)
	}
	return user, nil
}

// FindByLegacyIdentity はプロジェクト非スコープの(name_norm, role, contractor_role)で検索する。
// 見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByLegacyIdentity(ctx context.Context, nameNorm string, role model.Role, contractorRole string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE project_id IS NULL AND name_norm = $1 AND role = $2 AND contractor_role = $3`,
		nameNorm, string(role), contractorRole,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by legacy identity: %w", err)
	}
	return user, nil
}

// FindByToken は指定user_tokenのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByToken(ctx context.Context, userToken string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE user_token = $1`,
		userToken,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by token: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。一意性制約違反の場合はErrDuplicateUserを返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	// レガシー経路のユーザーはproject_idをNULLで保存する
	var projectID interface{}
	if user.ProjectID != "" {
		projectID = user.ProjectID
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_token, project_id, display_name, name_norm, role,
		                    contractor_role, password_hash, last_seen, last_active_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.UserToken, projectID, user.DisplayName, user.NameNorm, string(user.Role),
		user.ContractorRole, user.PasswordHash, user.LastSeen, user.LastActiveAt, user.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return ErrDuplicateUser
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateLastSeen はログイン時刻を更新する。
func (r *PostgresUserRepo) UpdateLastSeen(ctx context.Context, userToken string, t time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_seen = $2 WHERE user_token = $1`,
		userToken, t,
	)
	if err != nil {
		return fmt.Errorf("failed to update last_seen: %w", err)
	}
	return nil
}

// UpdateLastActive は最終アクティブ時刻を更新する。
func (r *PostgresUserRepo) UpdateLastActive(ctx context.Context, userToken string, t time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_active_at = $2 WHERE user_token = $1`,
		userToken, t,
	)
	if err != nil {
		return fmt.Errorf("failed to update last_active_at: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
