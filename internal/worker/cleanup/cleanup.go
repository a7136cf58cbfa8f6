// Package cleanup は期限切れセッションと古い監査ログの自動削除ジョブを提供する。
// 期限切れから猶予期間（デフォルト24時間）を超過したセッションと、
// 保持期間（デフォルト90日）を超過した監査ログを日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は期限切れセッションと古い監査ログの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db     Executor
	logger *slog.Logger

	// SessionGrace は期限切れ後もセッション行を残す猶予期間。
	// 直後の再検証で「期限切れ」と「存在しない」を区別できるようにする。
	SessionGrace time.Duration
	// AuditRetentionDays は監査ログの保持日数（デフォルト: 90）。
	AuditRetentionDays int
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:                 db,
		logger:             logger,
		SessionGrace:       24 * time.Hour,
		AuditRetentionDays: 90,
	}
}

// Run は期限切れセッションと保持期間超過の監査ログを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	sessionQuery := `DELETE FROM sessions WHERE expires_at < now() - $1::interval`
	graceInterval := fmt.Sprintf("%d seconds", int(j.SessionGrace.Seconds()))
	sessionResult, err := j.db.ExecContext(ctx, sessionQuery, graceInterval)
	if err != nil {
		j.logger.Error("セッションクリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}
	sessionsDeleted, err := sessionResult.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	auditQuery := `DELETE FROM audit_logs WHERE created_at < now() - $1::interval`
	auditInterval := fmt.Sprintf("%d days", j.AuditRetentionDays)
	auditResult, err := j.db.ExecContext(ctx, auditQuery, auditInterval)
	if err != nil {
		j.logger.Error("監査ログクリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.AuditRetentionDays),
		)
		return fmt.Errorf("監査ログクリーンアップの実行に失敗: %w", err)
	}
	auditDeleted, err := auditResult.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("sessions_deleted", sessionsDeleted),
		slog.Int64("audit_logs_deleted", auditDeleted),
		slog.Int("audit_retention_days", j.AuditRetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
