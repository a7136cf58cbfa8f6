package authz

import (
	"context"

	"github.com/hitoshi/koutei/internal/model"
)

// IdentityResolver はセッショントークンからアイデンティティを解決する。
// サーバー側ではauth.Serviceが、クライアント側ではAPI呼び出しが実装する。
type IdentityResolver interface {
	ValidateSession(ctx context.Context, sessionToken string) (*model.SessionIdentity, error)
}

// ClientSession はStoreに保存されたセッションを認可述語に橋渡しする。
// Loadでローカル期限を確認し、リゾルバで役割を解決してから判定する。
// 解決に失敗したセッションはキャッシュから破棄する。
type ClientSession struct {
	store    Store
	resolver IdentityResolver
}

// NewClientSession はClientSessionを生成する。
// storeがnilの場合はインメモリストアを使用する。
func NewClientSession(store Store, resolver IdentityResolver) *ClientSession {
	if store == nil {
		store = NewMemoryStore()
	}
	return &ClientSession{store: store, resolver: resolver}
}

// Store は内部のセッションストアを返す。
// サインイン/サインアウト時のSave/Clearに使用する。
func (c *ClientSession) Store() Store {
	return c.store
}

// Identity は保存済みセッションに対応するアイデンティティを返す。
// 未保存・ローカル期限切れ・サーバー検証失敗のいずれもnilを返す。
func (c *ClientSession) Identity(ctx context.Context) *model.SessionIdentity {
	session := c.store.Load()
	if session == nil {
		return nil
	}
	identity, err := c.resolver.ValidateSession(ctx, session.SessionToken)
	if err != nil {
		c.store.Clear()
		return nil
	}
	return identity
}

// CanManageTasks は保存済みセッションでタスク管理が行えるかを返す。
func (c *ClientSession) CanManageTasks(ctx context.Context) bool {
	return CanManageTasks(c.Identity(ctx))
}

// CanDeleteTasks は保存済みセッションでタスク削除が行えるかを返す。
func (c *ClientSession) CanDeleteTasks(ctx context.Context) bool {
	return CanDeleteTasks(c.Identity(ctx))
}

// CanViewProjectBudget は保存済みセッションでプロジェクト予算を閲覧できるかを返す。
func (c *ClientSession) CanViewProjectBudget(ctx context.Context) bool {
	return CanViewProjectBudget(c.Identity(ctx))
}

// CanViewTaskBudget は保存済みセッションでタスク予算を閲覧できるかを返す。
func (c *ClientSession) CanViewTaskBudget(ctx context.Context, task *model.Task) bool {
	return CanViewTaskBudget(c.Identity(ctx), task)
}
