// Package auth は登録/ログイン解決、アクセスコード認証、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/koutei/internal/model"
	"github.com/hitoshi/koutei/internal/repository"
	"github.com/hitoshi/koutei/internal/security"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 4

// 認証モード
const (
	// ModeLogin は既存ユーザーへのログインを表す。
	ModeLogin = "login"
	// ModeRegister は新規ユーザーの登録を表す。
	ModeRegister = "register"
)

// MetricsRecorder は認証サービスが発行するメトリクスのインターフェース。
// nilの場合は記録をスキップする。
type MetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordRegister()
	RecordCodeGrant(success bool)
	RecordSessionValidation(valid bool)
	RecordAuthLatency(duration time.Duration)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// SessionTTL はセッションの絶対有効期間（デフォルト: 30日）。
	SessionTTL time.Duration
	// FailureDelay はパスワード/コード不一致時に挿入する遅延（デフォルト: 1秒）。
	// ブルートフォースに対する簡易な抑止。
	FailureDelay time.Duration
	// ContractorCode は協力業者用の共有アクセスコード。
	ContractorCode string
	// ElevatedCode は管理系役割用の共有アクセスコード。
	ElevatedCode string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	auditRepo   repository.AuditLogRepository
	hasher      PasswordHasher
	sanitizer   security.TextSanitizerService
	metrics     MetricsRecorder
	config      ServiceConfig

	// テストから差し替えるための時計とスリープ
	now   func() time.Time
	sleep func(time.Duration)
}

// NewService はServiceを生成する。
// SessionTTL・FailureDelayが未設定の場合はデフォルト値（30日・1秒）を適用する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	auditRepo repository.AuditLogRepository,
	hasher PasswordHasher,
	sanitizer security.TextSanitizerService,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	if config.SessionTTL == 0 {
		config.SessionTTL = 30 * 24 * time.Hour
	}
	if config.FailureDelay == 0 {
		config.FailureDelay = time.Second
	}
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		auditRepo:   auditRepo,
		hasher:      hasher,
		sanitizer:   sanitizer,
		metrics:     metrics,
		config:      config,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// RegisterOrLoginInput は登録/ログイン解決の入力。
type RegisterOrLoginInput struct {
	ProjectID      string
	DisplayName    string
	Role           model.Role
	ContractorRole string // Role=contractorの場合のみ
	Password       string
	IPAddress      string
}

// AuthResult は認証成功時の結果。
type AuthResult struct {
	Mode    string // "login" または "register"
	User    *model.User
	Session *model.Session
}

// RegisterOrLogin は(プロジェクト, 表示名, 役割, パスワード)から、
// 正規化済みアイデンティティに対応するユーザーが存在すればログイン、
// 存在しなければ新規登録としてセッションを発行する。
//
// 同時初回登録の競合は楽観的INSERT+一意性違反リトライで解決する:
// INSERTが重複で失敗した場合は既存行に対するログインとして1回だけ再試行し、
// そのパスワードも一致しなければ競合エラーを返す。
//
// User作成・Session作成・監査ログ追記の3書き込みは単一トランザクションに
// 包まない。途中で中断した場合はセッションを持たないユーザーが残り得るが、
// クライアントがログインを再試行すれば回復する。
func (s *Service) RegisterOrLogin(ctx context.Context, input RegisterOrLoginInput) (*AuthResult, error) {
	start := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordAuthLatency(s.now().Sub(start))
		}
	}()

	if input.ProjectID == "" {
		return nil, model.NewMissingFieldError("projectId")
	}
	// 表示名は正規化・永続化の前にHTMLタグを除去する。
	// タグのみの入力はサニタイズ後に空になるため未指定として扱う。
	input.DisplayName = s.sanitizer.Sanitize(input.DisplayName)
	if input.DisplayName == "" {
		return nil, model.NewMissingFieldError("displayName")
	}
	if len(input.Password) < minPasswordLength {
		return nil, model.NewShortPasswordError()
	}

	nameNorm := model.NormalizeName(input.DisplayName)

	user, err := s.userRepo.FindByIdentity(ctx, input.ProjectID, nameNorm, input.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by identity: %w", err)
	}

	if user != nil {
		return s.loginExisting(ctx, user, input.Password, input.IPAddress)
	}

	return s.registerNew(ctx, input, nameNorm)
}

// loginExisting は既存ユーザーに対するパスワード検証とセッション発行を行う。
func (s *Service) loginExisting(ctx context.Context, user *model.User, password, ipAddress string) (*AuthResult, error) {
	// パスワード機能導入前のアカウントはログイン不可
	if user.PasswordHash == "" {
		return nil, model.NewLegacyAccountError()
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		s.failLogin(user.UserToken)
		return nil, model.NewWrongPasswordError()
	}

	if err := s.userRepo.UpdateLastSeen(ctx, user.UserToken, s.now()); err != nil {
		return nil, fmt.Errorf("failed to update last_seen: %w", err)
	}

	session, err := s.issueSession(ctx, user, ipAddress)
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, user.UserToken, model.AuditActionSignIn, map[string]string{
		"mode":    ModeLogin,
		"project": user.ProjectID,
		"role":    string(user.Role),
	}, ipAddress)

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
	slog.Info("user logged in",
		slog.String("user_token", user.UserToken),
		slog.String("project_id", user.ProjectID),
		slog.String("role", string(user.Role)),
	)

	return &AuthResult{Mode: ModeLogin, User: user, Session: session}, nil
}

// registerNew は新規ユーザーを作成してセッションを発行する。
// INSERTが一意性違反で失敗した場合は、直後に作成された既存行への
// ログインとして1回だけ再試行する。
func (s *Service) registerNew(ctx context.Context, input RegisterOrLoginInput, nameNorm string) (*AuthResult, error) {
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	contractorRole := ""
	if input.Role == model.RoleContractor {
		contractorRole = input.ContractorRole
		if contractorRole == "" {
			contractorRole = model.DefaultContractorRole
		}
	}

	now := s.now()
	user := &model.User{
		UserToken:      uuid.New().String(),
		ProjectID:      input.ProjectID,
		DisplayName:    input.DisplayName,
		NameNorm:       nameNorm,
		Role:           input.Role,
		ContractorRole: contractorRole,
		PasswordHash:   hash,
		LastSeen:       now,
		LastActiveAt:   now,
		CreatedAt:      now,
	}

	err = s.userRepo.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateUser) {
		// 同時初回登録の競合。勝者の行に対するログインとして再試行する。
		existing, findErr := s.userRepo.FindByIdentity(ctx, input.ProjectID, nameNorm, input.Role)
		if findErr != nil {
			return nil, fmt.Errorf("failed to re-read user after conflict: %w", findErr)
		}
		if existing == nil || existing.PasswordHash == "" || !s.hasher.Verify(existing.PasswordHash, input.Password) {
			return nil, model.NewIdentityConflictError()
		}
		return s.loginExisting(ctx, existing, input.Password, input.IPAddress)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.issueSession(ctx, user, input.IPAddress)
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, user.UserToken, model.AuditActionRegister, map[string]string{
		"mode":    ModeRegister,
		"project": user.ProjectID,
		"role":    string(user.Role),
	}, input.IPAddress)

	if s.metrics != nil {
		s.metrics.RecordRegister()
	}
	slog.Info("new user registered",
		slog.String("user_token", user.UserToken),
		slog.String("project_id", user.ProjectID),
		slog.String("role", string(user.Role)),
	)

	return &AuthResult{Mode: ModeRegister, User: user, Session: session}, nil
}

// VerifyCodeInput はアクセスコード認証の入力。
type VerifyCodeInput struct {
	Code        string
	DisplayName string
	// Role はコードにより解釈が変わる:
	// 協力業者コードでは職種ラベル（省略時はデフォルトラベル）、
	// 管理系コードでは付与する役割（admin/developer/project_manager、必須）。
	Role      string
	IPAddress string
}

// VerifyAccessCode は共有アクセスコードから役割を付与してセッションを発行する。
// パスワードを持たないレガシー経路で、ユーザーの一意性は
// (表示名, 役割, 職種ラベル)でプロジェクト非スコープに判定する。
func (s *Service) VerifyAccessCode(ctx context.Context, input VerifyCodeInput) (*AuthResult, error) {
	start := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordAuthLatency(s.now().Sub(start))
		}
	}()

	input.DisplayName = s.sanitizer.Sanitize(input.DisplayName)
	if input.DisplayName == "" {
		return nil, model.NewMissingFieldError("displayName")
	}

	var role model.Role
	var contractorRole string

	switch {
	case constantTimeEqual(input.Code, s.config.ContractorCode):
		role = model.RoleContractor
		contractorRole = input.Role
		if contractorRole == "" {
			contractorRole = model.DefaultContractorRole
		}
	case constantTimeEqual(input.Code, s.config.ElevatedCode):
		parsed, ok := model.ParseRole(input.Role)
		if !ok || !parsed.IsElevated() {
			return nil, model.NewInvalidRoleError(input.Role)
		}
		role = parsed
	default:
		s.sleep(s.config.FailureDelay)
		if s.metrics != nil {
			s.metrics.RecordCodeGrant(false)
		}
		slog.Warn("access code rejected", slog.String("ip", input.IPAddress))
		return nil, model.NewInvalidCodeError()
	}

	nameNorm := model.NormalizeName(input.DisplayName)

	user, err := s.userRepo.FindByLegacyIdentity(ctx, nameNorm, role, contractorRole)
	if err != nil {
		return nil, fmt.Errorf("failed to find legacy user: %w", err)
	}

	if user == nil {
		now := s.now()
		user = &model.User{
			UserToken:      uuid.New().String(),
			DisplayName:    input.DisplayName,
			NameNorm:       nameNorm,
			Role:           role,
			ContractorRole: contractorRole,
			LastSeen:       now,
			LastActiveAt:   now,
			CreatedAt:      now,
		}
		err = s.userRepo.Create(ctx, user)
		if errors.Is(err, repository.ErrDuplicateUser) {
			// 同時サインインで先に作成された行を採用する
			user, err = s.userRepo.FindByLegacyIdentity(ctx, nameNorm, role, contractorRole)
			if err != nil {
				return nil, fmt.Errorf("failed to re-read legacy user after conflict: %w", err)
			}
			if user == nil {
				return nil, fmt.Errorf("legacy user vanished after duplicate insert")
			}
		} else if err != nil {
			return nil, fmt.Errorf("failed to create legacy user: %w", err)
		}
	} else {
		if err := s.userRepo.UpdateLastSeen(ctx, user.UserToken, s.now()); err != nil {
			return nil, fmt.Errorf("failed to update last_seen: %w", err)
		}
	}

	session, err := s.issueSession(ctx, user, input.IPAddress)
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, user.UserToken, model.AuditActionSignIn, map[string]string{
		"mode": "code",
		"role": string(user.Role),
	}, input.IPAddress)

	if s.metrics != nil {
		s.metrics.RecordCodeGrant(true)
	}
	slog.Info("access code accepted",
		slog.String("user_token", user.UserToken),
		slog.String("role", string(user.Role)),
	)

	return &AuthResult{Mode: ModeLogin, User: user, Session: session}, nil
}

// ValidateSession はセッショントークンを検証し、ユーザーの公開情報を返す。
// 期限切れと不存在は区別せず、一様に無効として扱う（列挙攻撃対策）。
// 成功時のlast_refreshed_at/last_active_atの更新はベストエフォートで、
// 失敗してもログに残すのみで検証結果には影響しない。
func (s *Service) ValidateSession(ctx context.Context, sessionToken string) (*model.SessionIdentity, error) {
	if sessionToken == "" {
		if s.metrics != nil {
			s.metrics.RecordSessionValidation(false)
		}
		return nil, model.NewInvalidSessionError()
	}

	session, err := s.sessionRepo.FindByToken(ctx, sessionToken)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		if s.metrics != nil {
			s.metrics.RecordSessionValidation(false)
		}
		return nil, model.NewInvalidSessionError()
	}

	user, err := s.userRepo.FindByToken(ctx, session.UserToken)
	if err != nil {
		return nil, fmt.Errorf("failed to find session user: %w", err)
	}
	if user == nil {
		if s.metrics != nil {
			s.metrics.RecordSessionValidation(false)
		}
		return nil, model.NewInvalidSessionError()
	}

	// 監査用の記録。正確性の契約には含めない。
	now := s.now()
	if err := s.sessionRepo.Touch(ctx, sessionToken, now); err != nil {
		slog.Warn("failed to touch session", slog.String("error", err.Error()))
	}
	if err := s.userRepo.UpdateLastActive(ctx, user.UserToken, now); err != nil {
		slog.Warn("failed to update last_active_at", slog.String("error", err.Error()))
	}

	if s.metrics != nil {
		s.metrics.RecordSessionValidation(true)
	}

	return &model.SessionIdentity{
		UserToken:   user.UserToken,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}, nil
}

// SignOut はセッションを破棄する。
func (s *Service) SignOut(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return model.NewInvalidSessionError()
	}
	if err := s.sessionRepo.DeleteByToken(ctx, sessionToken); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	slog.Info("user signed out")
	return nil
}

// failLogin はパスワード不一致時の処理をまとめる。
// 遅延を挿入してからメトリクスとログを記録する。
func (s *Service) failLogin(userToken string) {
	s.sleep(s.config.FailureDelay)
	if s.metrics != nil {
		s.metrics.RecordLoginFailure()
	}
	slog.Warn("password mismatch", slog.String("user_token", userToken))
}

// issueSession は不透明トークンのセッションを作成し永続化する。
func (s *Service) issueSession(ctx context.Context, user *model.User, ipAddress string) (*model.Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now()
	session := &model.Session{
		SessionToken:    token,
		UserToken:       user.UserToken,
		ProjectID:       user.ProjectID,
		ExpiresAt:       now.Add(s.config.SessionTTL),
		IPAddress:       ipAddress,
		LastRefreshedAt: now,
		CreatedAt:       now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// appendAudit は監査ログをベストエフォートで追記する。
// 監査ログの書き込み失敗で認証自体を失敗させない。
func (s *Service) appendAudit(ctx context.Context, userToken, action string, details map[string]string, ipAddress string) {
	entry := &model.AuditLogEntry{
		ID:        uuid.New().String(),
		UserToken: userToken,
		Action:    action,
		Details:   details,
		IPAddress: ipAddress,
		CreatedAt: s.now(),
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		slog.Error("failed to append audit log",
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}

// constantTimeEqual は2つの文字列を一定時間で比較する。
func constantTimeEqual(a, b string) bool {
	if b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// generateSessionToken は暗号的に安全なセッショントークンを生成する。
func generateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
