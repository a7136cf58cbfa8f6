package authz

import (
	"sync"
	"time"

	"github.com/hitoshi/koutei/internal/model"
)

// Store はクライアント側セッションキャッシュの抽象。
// 暗黙のグローバル状態を避けるため、認可判定を行う側には
// このインターフェースを依存として注入する。
type Store interface {
	// Load は保存済みセッションを返す。未保存または期限切れの場合はnilを返す。
	// 期限はサーバー検証とは独立に、アクセスのたびにローカルで確認する。
	Load() *model.Session
	// Save はセッションを保存する。
	Save(session *model.Session)
	// Clear は保存済みセッションを破棄する。
	Clear()
}

// MemoryStore はStoreのインメモリ実装。
type MemoryStore struct {
	mu      sync.RWMutex
	session *model.Session
	now     func() time.Time
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Load は保存済みセッションを返す。期限切れの場合は破棄してnilを返す。
func (s *MemoryStore) Load() *model.Session {
	s.mu.RLock()
	session := s.session
	s.mu.RUnlock()

	if session == nil {
		return nil
	}
	if session.Expired(s.now()) {
		s.Clear()
		return nil
	}
	return session
}

// Save はセッションを保存する。
func (s *MemoryStore) Save(session *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

// Clear は保存済みセッションを破棄する。
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
