// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// User は工程表サービスの利用ユーザーを表す。
// (ProjectID, NameNorm, Role) の組が同一プロジェクト内の重複登録判定キー。
// ProjectIDが空のレコードはアクセスコード経由のレガシー経路で作成されたもので、
// (NameNorm, Role, ContractorRole) で一意性を判定する。
type User struct {
	UserToken      string // 不透明なユーザーID（UUID）
	ProjectID      string // レガシー経路では空
	DisplayName    string
	NameNorm       string // DisplayNameの正規化形（小文字・空白正規化）
	Role           Role
	ContractorRole string // Role=contractorの場合のみ。職種ラベル（例: "Architect"）
	PasswordHash   string // パスワード未サポート期のアカウントでは空
	LastSeen       time.Time
	LastActiveAt   time.Time
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
// 同一ユーザーが複数端末から同時にセッションを持つことができる。
// ExpiresAtは発行時刻+30日の絶対期限で、延長されることはない。
type Session struct {
	SessionToken    string // 不透明でランダムな推測不能トークン
	UserToken       string
	ProjectID       string
	ExpiresAt       time.Time
	IPAddress       string
	LastRefreshedAt time.Time
	CreatedAt       time.Time
}

// Expired はtの時点でセッションが期限切れかを返す。
func (s *Session) Expired(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// SessionIdentity はセッション検証が返すユーザーの公開情報。
// 検証失敗の理由（期限切れ/不存在）は区別せず一様にinvalidとする。
type SessionIdentity struct {
	UserToken   string
	DisplayName string
	Role        Role
}

// AuditLogEntry は認証関連イベントの追記専用監査ログ。
// アプリケーションから更新・削除されることはない。
type AuditLogEntry struct {
	ID        string
	UserToken string
	Action    string // "register" / "sign_in" 等
	Details   map[string]string
	IPAddress string
	CreatedAt time.Time
}

// 監査ログのアクション種別
const (
	AuditActionRegister = "register"
	AuditActionSignIn   = "sign_in"
	AuditActionSignOut  = "sign_out"
)

// NormalizeName は表示名を重複判定用に正規化する。
// 小文字化し、前後の空白を除去し、内部の連続空白を1つに潰す。
func NormalizeName(displayName string) string {
	lowered := strings.ToLower(strings.TrimSpace(displayName))
	return strings.Join(strings.Fields(lowered), " ")
}
