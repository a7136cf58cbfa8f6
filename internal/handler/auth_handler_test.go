package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/koutei/internal/auth"
	"github.com/hitoshi/koutei/internal/middleware"
	"github.com/hitoshi/koutei/internal/model"
)

// --- モック ---

type mockAuthService struct {
	registerOrLoginFn  func(ctx context.Context, input auth.RegisterOrLoginInput) (*auth.AuthResult, error)
	verifyAccessCodeFn func(ctx context.Context, input auth.VerifyCodeInput) (*auth.AuthResult, error)
	validateSessionFn  func(ctx context.Context, sessionToken string) (*model.SessionIdentity, error)
	signOutFn          func(ctx context.Context, sessionToken string) error
}

func (m *mockAuthService) RegisterOrLogin(ctx context.Context, input auth.RegisterOrLoginInput) (*auth.AuthResult, error) {
	return m.registerOrLoginFn(ctx, input)
}
func (m *mockAuthService) VerifyAccessCode(ctx context.Context, input auth.VerifyCodeInput) (*auth.AuthResult, error) {
	return m.verifyAccessCodeFn(ctx, input)
}
func (m *mockAuthService) ValidateSession(ctx context.Context, sessionToken string) (*model.SessionIdentity, error) {
	if m.validateSessionFn != nil {
		return m.validateSessionFn(ctx, sessionToken)
	}
	return nil, model.NewInvalidSessionError()
}
func (m *mockAuthService) SignOut(ctx context.Context, sessionToken string) error {
	if m.signOutFn != nil {
		return m.signOutFn(ctx, sessionToken)
	}
	return nil
}

func testAuthResult(mode string) *auth.AuthResult {
	return &auth.AuthResult{
		Mode: mode,
		User: &model.User{
			UserToken:   "user-1",
			DisplayName: "田中 太郎",
			Role:        model.RoleContractor,
		},
		Session: &model.Session{
			SessionToken: "session-token-1",
			UserToken:    "user-1",
			ExpiresAt:    time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

// --- テスト ---

func TestAuthHandler_RegisterOrLogin_Success(t *testing.T) {
	service := &mockAuthService{
		registerOrLoginFn: func(ctx context.Context, input auth.RegisterOrLoginInput) (*auth.AuthResult, error) {
			if input.ProjectID != "proj-1" || input.Role != model.RoleContractor {
				t.Errorf("unexpected input: %+v", input)
			}
			return testAuthResult(auth.ModeRegister), nil
		},
	}
	h := NewAuthHandler(service)

	w := postJSON(t, h.RegisterOrLogin, "/auth-register-or-login", map[string]string{
		"projectId":   "proj-1",
		"displayName": "田中 太郎",
		"role":        "contractor",
		"password":    "pass1234",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		Mode    string `json:"mode"`
		Session struct {
			SessionToken string `json:"session_token"`
			UserToken    string `json:"user_token"`
			Role         string `json:"role"`
		} `json:"session"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !resp.Success || resp.Mode != "register" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Session.SessionToken != "session-token-1" || resp.Session.UserToken != "user-1" {
		t.Errorf("unexpected session payload: %+v", resp.Session)
	}
}

func TestAuthHandler_RegisterOrLogin_ErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"パスワード不足は400", model.NewShortPasswordError(), http.StatusBadRequest},
		{"パスワード不一致は401", model.NewWrongPasswordError(), http.StatusUnauthorized},
		{"レガシーアカウントは400", model.NewLegacyAccountError(), http.StatusBadRequest},
		{"登録競合は409", model.NewIdentityConflictError(), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockAuthService{
				registerOrLoginFn: func(ctx context.Context, input auth.RegisterOrLoginInput) (*auth.AuthResult, error) {
					return nil, tt.serviceErr
				},
			}
			h := NewAuthHandler(service)

			w := postJSON(t, h.RegisterOrLogin, "/auth-register-or-login", map[string]string{
				"projectId":   "proj-1",
				"displayName": "田中 太郎",
				"role":        "contractor",
				"password":    "pass1234",
			})
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var body middleware.ErrorResponseBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if body.Error == "" || body.Code == "" {
				t.Errorf("error body should carry message and code: %+v", body)
			}
		})
	}
}

func TestAuthHandler_RegisterOrLogin_InvalidRole(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := postJSON(t, h.RegisterOrLogin, "/auth-register-or-login", map[string]string{
		"projectId":   "proj-1",
		"displayName": "田中 太郎",
		"role":        "superuser",
		"password":    "pass1234",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAuthHandler_VerifyCode(t *testing.T) {
	t.Run("成功", func(t *testing.T) {
		service := &mockAuthService{
			verifyAccessCodeFn: func(ctx context.Context, input auth.VerifyCodeInput) (*auth.AuthResult, error) {
				return testAuthResult(auth.ModeLogin), nil
			},
		}
		h := NewAuthHandler(service)

		w := postJSON(t, h.VerifyCode, "/auth-verify-code", map[string]string{
			"code":        "genba-2024",
			"displayName": "田中 太郎",
		})
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("不正コードは401", func(t *testing.T) {
		service := &mockAuthService{
			verifyAccessCodeFn: func(ctx context.Context, input auth.VerifyCodeInput) (*auth.AuthResult, error) {
				return nil, model.NewInvalidCodeError()
			},
		}
		h := NewAuthHandler(service)

		w := postJSON(t, h.VerifyCode, "/auth-verify-code", map[string]string{
			"code":        "wrong",
			"displayName": "田中 太郎",
		})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
}

func TestAuthHandler_ValidateSession(t *testing.T) {
	t.Run("有効セッション", func(t *testing.T) {
		service := &mockAuthService{
			validateSessionFn: func(ctx context.Context, sessionToken string) (*model.SessionIdentity, error) {
				return &model.SessionIdentity{
					UserToken:   "user-1",
					DisplayName: "田中 太郎",
					Role:        model.RoleAdmin,
				}, nil
			},
		}
		h := NewAuthHandler(service)

		w := postJSON(t, h.ValidateSession, "/auth-validate-session", map[string]string{
			"session_token": "valid-token",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		var resp struct {
			Valid   bool              `json:"valid"`
			Session map[string]string `json:"session"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if !resp.Valid || resp.Session["user_token"] != "user-1" || resp.Session["role"] != "admin" {
			t.Errorf("unexpected response: %+v", resp)
		}
		// 公開情報のみ返し、トークンやハッシュは含めない
		if _, ok := resp.Session["session_token"]; ok {
			t.Error("validate response must not echo the session token")
		}
	})

	t.Run("無効セッションは401でvalid:false", func(t *testing.T) {
		h := NewAuthHandler(&mockAuthService{})

		w := postJSON(t, h.ValidateSession, "/auth-validate-session", map[string]string{
			"session_token": "expired-or-unknown",
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}

		var resp struct {
			Valid bool   `json:"valid"`
			Error string `json:"error"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if resp.Valid || resp.Error == "" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})
}

func TestAuthHandler_SignOut(t *testing.T) {
	deleted := ""
	service := &mockAuthService{
		signOutFn: func(ctx context.Context, sessionToken string) error {
			deleted = sessionToken
			return nil
		},
	}
	h := NewAuthHandler(service)

	w := postJSON(t, h.SignOut, "/auth-sign-out", map[string]string{
		"session_token": "token-1",
	})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if deleted != "token-1" {
		t.Errorf("expected token-1 signed out, got %q", deleted)
	}
}
