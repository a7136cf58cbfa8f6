// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/koutei/internal/model"
)

// ErrDuplicateUser は一意性制約違反によるユーザー作成失敗を表す。
// 同時登録の競合（同一の正規化名+役割での同時初回登録）を検出するために使用し、
// 呼び出し側はログインとしてリトライする。
var ErrDuplicateUser = errors.New("duplicate user identity")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByIdentity は(project_id, name_norm, role)でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByIdentity(ctx context.Context, projectID, nameNorm string, role model.Role) (*model.User, error)

	// FindByLegacyIdentity はプロジェクト非スコープの(name_norm, role, contractor_role)で
	// ユーザーを検索する。アクセスコード経路専用。見つからない場合はnilを返す。
	FindByLegacyIdentity(ctx context.Context, nameNorm string, role model.Role, contractorRole string) (*model.User, error)

	// FindByToken は指定user_tokenのユーザーを取得する。見つからない場合はnilを返す。
	FindByToken(ctx context.Context, userToken string) (*model.User, error)

	// Create はユーザーを作成する。一意性制約違反の場合はErrDuplicateUserを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateLastSeen はログイン時刻を更新する。
	UpdateLastSeen(ctx context.Context, userToken string, t time.Time) error

	// UpdateLastActive は最終アクティブ時刻を更新する。
	// セッション検証時のベストエフォート記録用。
	UpdateLastActive(ctx context.Context, userToken string, t time.Time) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByToken は指定トークンの有効なセッションを取得する。
	// 期限切れまたは不存在の場合はnilを返す（両者は区別しない）。
	FindByToken(ctx context.Context, token string) (*model.Session, error)

	// Touch はlast_refreshed_atを更新する。有効期限自体は延長しない。
	Touch(ctx context.Context, token string, t time.Time) error

	// DeleteByToken は指定トークンのセッションを削除する（サインアウト）。
	DeleteByToken(ctx context.Context, token string) error

	// DeleteByUserToken は指定ユーザーの全セッションを削除する。
	DeleteByUserToken(ctx context.Context, userToken string) error
}

// AuditLogRepository は監査ログの永続化インターフェース。追記のみ。
type AuditLogRepository interface {
	// Append は監査ログエントリを追記する。
	Append(ctx context.Context, entry *model.AuditLogEntry) error
}

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// ListByProject はプロジェクトの全タスクをstart_date昇順で返す。
	ListByProject(ctx context.Context, projectID string) ([]*model.Task, error)

	// UpdateDates はタスクの日程を更新し、シフト済みマーカーを立てる。
	// was_shiftedとlast_shift_dateの更新は冪等で、リトライしても安全。
	UpdateDates(ctx context.Context, taskID string, startDate, endDate time.Time, shiftedAt time.Time) error

	// RebaseDates はタスクの日程のみを更新する（シフト済みマーカーは触らない）。
	RebaseDates(ctx context.Context, taskID string, startDate, endDate time.Time) error

	// UpdateProgress は進捗率・状態・遅延理由を更新する。
	UpdateProgress(ctx context.Context, taskID string, percent int, status model.TaskStatus, delayReason string) error

	// ResetStatus はタスクの状態を指定値に戻す。clearDelayReasonの場合は遅延理由も消去する。
	ResetStatus(ctx context.Context, taskID string, status model.TaskStatus, clearDelayReason bool) error

	// UpdateAssignment はタスクの担当者を更新する。
	UpdateAssignment(ctx context.Context, taskID, userToken, displayName string) error

	// Delete は指定IDのタスクを削除する。関連コメントはCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// ProjectRepository はプロジェクトデータの永続化インターフェース。
type ProjectRepository interface {
	// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Project, error)

	// ShiftCurrentDate はproject_current_dateをdeltaDays日ずらす。
	ShiftCurrentDate(ctx context.Context, projectID string, deltaDays int) error
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// ListByTask はタスクのコメント一覧をcreated_at昇順で返す。
	ListByTask(ctx context.Context, taskID string) ([]*model.Comment, error)
}

// BaselineRepository はリベースライン前スナップショットの永続化インターフェース。
type BaselineRepository interface {
	// CreateSnapshot はベースラインと所属タスクの日程を同一トランザクションで保存する。
	CreateSnapshot(ctx context.Context, baseline *model.Baseline, tasks []*model.BaselineTask) error
}
