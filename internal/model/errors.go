package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, conflict, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingField     = "MISSING_FIELD"
	ErrCodeShortPassword    = "SHORT_PASSWORD"
	ErrCodeInvalidRole      = "INVALID_ROLE"
	ErrCodeWrongPassword    = "WRONG_PASSWORD"
	ErrCodeInvalidCode      = "INVALID_CODE"
	ErrCodeLegacyAccount    = "LEGACY_ACCOUNT"
	ErrCodeIdentityConflict = "IDENTITY_CONFLICT"
	ErrCodeInvalidSession   = "INVALID_SESSION"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeTaskNotFound     = "TASK_NOT_FOUND"
	ErrCodeProjectNotFound  = "PROJECT_NOT_FOUND"
	ErrCodeInvalidDateRange = "INVALID_DATE_RANGE"
	ErrCodeInvalidProgress  = "INVALID_PROGRESS"
	ErrCodeStorage          = "STORAGE_ERROR"
)

// NewMissingFieldError は必須項目未入力エラーを生成する。
func NewMissingFieldError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingField,
		Message:  fmt.Sprintf("必須項目が入力されていません: %s", field),
		Category: "validation",
		Action:   "すべての必須項目を入力してください。",
	}
}

// NewShortPasswordError はパスワード長不足エラーを生成する。
func NewShortPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeShortPassword,
		Message:  "パスワードは4文字以上で入力してください。",
		Category: "validation",
		Action:   "4文字以上のパスワードを設定してください。",
	}
}

// NewInvalidRoleError は無効な役割エラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効な役割です: %s", role),
		Category: "validation",
		Action:   "contractor、admin、developer、project_manager のいずれかを指定してください。",
	}
}

// NewWrongPasswordError はパスワード不一致エラーを生成する。
// ブルートフォース抑止のため、サービス層は返却前に約1秒の遅延を入れる。
func NewWrongPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeWrongPassword,
		Message:  "パスワードが一致しません。",
		Category: "auth",
		Action:   "パスワードを確認して再度お試しください。",
	}
}

// NewInvalidCodeError はアクセスコード不一致エラーを生成する。
func NewInvalidCodeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCode,
		Message:  "アクセスコードが正しくありません。",
		Category: "auth",
		Action:   "配布されたアクセスコードを確認してください。",
	}
}

// NewLegacyAccountError はパスワード未設定アカウントのエラーを生成する。
// パスワード機能導入前に作成されたアカウントはログインできない。
func NewLegacyAccountError() *APIError {
	return &APIError{
		Code:     ErrCodeLegacyAccount,
		Message:  "このアカウントにはパスワードが設定されていません。",
		Category: "validation",
		Action:   "管理者に連絡してアカウントの再設定を依頼してください。",
	}
}

// NewIdentityConflictError は同時登録競合エラーを生成する。
// 同じ名前・役割のアカウントが別パスワードで既に存在する場合に返す。
func NewIdentityConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeIdentityConflict,
		Message:  "同じ名前と役割のアカウントが別のパスワードで既に存在します。",
		Category: "conflict",
		Action:   "別の表示名を使用するか、正しいパスワードでログインしてください。",
	}
}

// NewInvalidSessionError はセッション無効エラーを生成する。
// 期限切れと不存在は区別しない（列挙攻撃対策）。
func NewInvalidSessionError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSession,
		Message:  "セッションが無効です。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "現場監督または管理者に操作を依頼してください。",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
		Category: "validation",
		Action:   "タスクIDを確認してください。",
	}
}

// NewProjectNotFoundError はプロジェクト未検出エラーを生成する。
func NewProjectNotFoundError(projectID string) *APIError {
	return &APIError{
		Code:     ErrCodeProjectNotFound,
		Message:  fmt.Sprintf("指定されたプロジェクトが見つかりません: %s", projectID),
		Category: "validation",
		Action:   "プロジェクトIDを確認してください。",
	}
}

// NewInvalidDateRangeError は日付範囲エラーを生成する。
func NewInvalidDateRangeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDateRange,
		Message:  "終了日は開始日以降の日付を指定してください。",
		Category: "validation",
		Action:   "開始日と終了日を確認してください。",
	}
}

// NewInvalidProgressError は進捗率エラーを生成する。
func NewInvalidProgressError(percent int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidProgress,
		Message:  fmt.Sprintf("無効な進捗率です: %d", percent),
		Category: "validation",
		Action:   "進捗率は0から100の範囲で指定してください。",
	}
}
