package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/koutei/internal/authz"
	"github.com/hitoshi/koutei/internal/middleware"
	"github.com/hitoshi/koutei/internal/model"
)

// ProjectFinder はプロジェクトの取得に必要なインターフェース。
// repository.ProjectRepositoryの部分集合として定義する。
type ProjectFinder interface {
	FindByID(ctx context.Context, id string) (*model.Project, error)
}

// ProjectHandler はプロジェクト関連のHTTPハンドラー。
type ProjectHandler struct {
	projects ProjectFinder
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(projects ProjectFinder) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// GetProject はプロジェクト情報を返す。
// GET /api/projects/{projectID}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewInvalidSessionError())
		return
	}

	projectID := chi.URLParam(r, "projectID")
	project, err := h.projects.FindByID(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if project == nil {
		writeError(w, model.NewProjectNotFoundError(projectID))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":                      project.ID,
		"name":                    project.Name,
		"description":             project.Description,
		"custom_contractors":      project.CustomContractors,
		"project_start_date":      project.ProjectStartDate.Format("2006-01-02"),
		"project_current_date":    project.ProjectCurrentDate.Format("2006-01-02"),
		"project_duration_months": project.ProjectDurationMonths,
		"archived":                project.Archived,
		// 予算閲覧可否はクライアントの表示制御用。実際の予算値は
		// タスク単位でCanViewTaskBudgetにより制御される。
		"can_view_budget": authz.CanViewProjectBudget(identity),
	})
}

// HealthChecker はヘルスチェックに必要なインターフェース。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// NewHealthHandler は/health用のハンドラーを返す。
// DB疎通を確認し、正常なら200を返す。
func NewHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := checker.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
