package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/koutei/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (session_token, user_token, project_id, expires_at,
		                       ip_address, last_refreshed_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		session.SessionToken, session.UserToken, session.ProjectID, session.ExpiresAt,
		session.IPAddress, session.LastRefreshedAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByToken は指定トークンの有効なセッションを取得する。
// 期限切れまたは不存在の場合はnilを返す（両者は区別しない）。
func (r *PostgresSessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	session := &model.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT session_token, user_token, COALESCE(project_id, ''), expires_at,
		        ip_address, last_refreshed_at, created_at
		 FROM sessions
		 WHERE session_token = $1 AND expires_at > now()`,
		token,
	).Scan(
		&session.SessionToken, &session.UserToken, &session.ProjectID, &session.ExpiresAt,
		&session.IPAddress, &session.LastRefreshedAt, &session.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return session, nil
}

// Touch はlast_refreshed_atを更新する。有効期限自体は延長しない。
func (r *PostgresSessionRepo) Touch(ctx context.Context, token string, t time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_refreshed_at = $2 WHERE session_token = $1`,
		token, t,
	)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// DeleteByToken は指定トークンのセッションを削除する。
func (r *PostgresSessionRepo) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_token = $1`,
		token,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUserToken は指定ユーザーの全セッションを削除する。
func (r *PostgresSessionRepo) DeleteByUserToken(ctx context.Context, userToken string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_token = $1`,
		userToken,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
