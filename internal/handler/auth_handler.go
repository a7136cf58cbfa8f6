package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/koutei/internal/auth"
	"github.com/hitoshi/koutei/internal/middleware"
	"github.com/hitoshi/koutei/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	RegisterOrLogin(ctx context.Context, input auth.RegisterOrLoginInput) (*auth.AuthResult, error)
	VerifyAccessCode(ctx context.Context, input auth.VerifyCodeInput) (*auth.AuthResult, error)
	ValidateSession(ctx context.Context, sessionToken string) (*model.SessionIdentity, error)
	SignOut(ctx context.Context, sessionToken string) error
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// sessionPayload はレスポンスに含めるセッション情報。
// クライアントはこれをローカルに保存し、以降のリクエストに付与する。
type sessionPayload struct {
	SessionToken   string    `json:"session_token"`
	UserToken      string    `json:"user_token"`
	DisplayName    string    `json:"display_name"`
	Role           string    `json:"role"`
	ContractorRole string    `json:"contractor_role,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// newSessionPayload はAuthResultからsessionPayloadを構築する。
func newSessionPayload(result *auth.AuthResult) sessionPayload {
	return sessionPayload{
		SessionToken:   result.Session.SessionToken,
		UserToken:      result.User.UserToken,
		DisplayName:    result.User.DisplayName,
		Role:           string(result.User.Role),
		ContractorRole: result.User.ContractorRole,
		ExpiresAt:      result.Session.ExpiresAt,
	}
}

// RegisterOrLogin はパスワード認証で登録またはログインを行う。
// POST /auth-register-or-login
func (h *AuthHandler) RegisterOrLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID      string `json:"projectId"`
		DisplayName    string `json:"displayName"`
		Role           string `json:"role"`
		ContractorRole string `json:"contractorRole"`
		Password       string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewMissingFieldError("body"))
		return
	}

	role, ok := model.ParseRole(req.Role)
	if !ok {
		writeError(w, model.NewInvalidRoleError(req.Role))
		return
	}

	result, err := h.service.RegisterOrLogin(r.Context(), auth.RegisterOrLoginInput{
		ProjectID:      req.ProjectID,
		DisplayName:    req.DisplayName,
		Role:           role,
		ContractorRole: req.ContractorRole,
		Password:       req.Password,
		IPAddress:      middleware.ClientIP(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"mode":    result.Mode,
		"session": newSessionPayload(result),
	})
}

// VerifyCode は共有アクセスコードによる認証を行う。
// POST /auth-verify-code
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string `json:"code"`
		DisplayName string `json:"displayName"`
		Role        string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewMissingFieldError("body"))
		return
	}

	result, err := h.service.VerifyAccessCode(r.Context(), auth.VerifyCodeInput{
		Code:        req.Code,
		DisplayName: req.DisplayName,
		Role:        req.Role,
		IPAddress:   middleware.ClientIP(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"mode":    result.Mode,
		"session": newSessionPayload(result),
	})
}

// ValidateSession はセッショントークンの有効性を検証する。
// 無効の場合、期限切れか不存在かは応答から区別できない。
// POST /auth-validate-session
func (h *AuthHandler) ValidateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewMissingFieldError("body"))
		return
	}

	identity, err := h.service.ValidateSession(r.Context(), req.SessionToken)
	if err != nil {
		if apiErr, ok := err.(*model.APIError); ok && apiErr.Code == model.ErrCodeInvalidSession {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"valid": false,
				"error": apiErr.Message,
			})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid": true,
		"session": map[string]string{
			"user_token":   identity.UserToken,
			"display_name": identity.DisplayName,
			"role":         string(identity.Role),
		},
	})
}

// SignOut はセッションを破棄する。
// POST /auth-sign-out
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewMissingFieldError("body"))
		return
	}

	if err := h.service.SignOut(r.Context(), req.SessionToken); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
