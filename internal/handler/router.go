package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/koutei/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionValidator  middleware.SessionValidator
	CORSAllowedOrigin string
	AppBearerToken    string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 認証
	AuthService AuthServiceInterface

	// タスク
	TaskService TaskServiceInterface

	// 工程シフト
	ScheduleEngine ScheduleEngineInterface

	// プロジェクト
	ProjectFinder ProjectFinder

	// ヘルスチェック
	HealthChecker HealthChecker
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS →
//	  認証ルート: AppAuth → RateLimit(Auth)
//	  保護ルート: Session → RateLimit(General)
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	taskHandler := NewTaskHandler(deps.TaskService)
	scheduleHandler := NewScheduleHandler(deps.ScheduleEngine)
	projectHandler := NewProjectHandler(deps.ProjectFinder)

	// --- セッション不要のルート ---

	// ヘルスチェック
	r.Get("/health", NewHealthHandler(deps.HealthChecker))

	// 認証ルート。アプリ資格情報（Bearerトークン）とIP単位のレート制限で保護する。
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAppAuthMiddleware(deps.AppBearerToken))
		r.Use(deps.RateLimiter.AuthMiddleware())

		r.Post("/auth-register-or-login", authHandler.RegisterOrLogin)
		r.Post("/auth-verify-code", authHandler.VerifyCode)
		r.Post("/auth-validate-session", authHandler.ValidateSession)
		r.Post("/auth-sign-out", authHandler.SignOut)
	})

	// --- セッションが必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionValidator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// プロジェクト
		r.Route("/api/projects/{projectID}", func(r chi.Router) {
			r.Get("/", projectHandler.GetProject)
			r.Get("/tasks", taskHandler.ListTasks)
			r.Post("/rebaseline", scheduleHandler.Rebaseline)
		})

		// タスク管理
		r.Route("/api/tasks/{id}", func(r chi.Router) {
			r.Get("/", taskHandler.GetTask)
			r.Delete("/", taskHandler.DeleteTask)
			r.Put("/progress", taskHandler.UpdateProgress)
			r.Put("/assignment", taskHandler.Assign)
			r.Post("/shift", scheduleHandler.Shift)

			// コメント
			r.Get("/comments", taskHandler.ListComments)
			r.Post("/comments", taskHandler.AddComment)
		})
	})

	return r
}
