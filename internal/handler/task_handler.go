package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/koutei/internal/authz"
	"github.com/hitoshi/koutei/internal/middleware"
	"github.com/hitoshi/koutei/internal/model"
	"github.com/hitoshi/koutei/internal/task"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	Get(ctx context.Context, taskID string) (*model.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*model.Task, error)
	UpdateProgress(ctx context.Context, input task.UpdateProgressInput) (*model.Task, error)
	Assign(ctx context.Context, taskID, userToken, displayName string) (*model.Task, error)
	Delete(ctx context.Context, taskID string) error
	AddComment(ctx context.Context, taskID, authorToken, authorName, body string) (*model.Comment, error)
	ListComments(ctx context.Context, taskID string) ([]*model.Comment, error)
}

// TaskHandler はタスク関連のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// taskPayload はレスポンスに含めるタスク情報。
// Budgetは閲覧権限のある呼び出し元にのみ含める。
type taskPayload struct {
	ID                  string     `json:"id"`
	ProjectID           string     `json:"project_id"`
	Name                string     `json:"name"`
	OwnerRoles          []string   `json:"owner_roles"`
	StartDate           string     `json:"start_date"`
	EndDate             string     `json:"end_date"`
	PercentDone         int        `json:"percent_done"`
	Status              string     `json:"status"`
	DelayReason         string     `json:"delay_reason,omitempty"`
	AssignedUserToken   string     `json:"assigned_user_token,omitempty"`
	AssignedDisplayName string     `json:"assigned_display_name,omitempty"`
	WasShifted          bool       `json:"was_shifted"`
	LastShiftDate       *time.Time `json:"last_shift_date,omitempty"`
	Budget              *int64     `json:"budget,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// newTaskPayload はタスクをレスポンス形式に変換する。
// 予算はタスクごとにCanViewTaskBudgetで判定して含める
// （割り当てはタスクごとに異なるため、全体でキャッシュしない）。
func newTaskPayload(t *model.Task, identity *model.SessionIdentity) taskPayload {
	p := taskPayload{
		ID:                  t.ID,
		ProjectID:           t.ProjectID,
		Name:                t.Name,
		OwnerRoles:          t.OwnerRoles,
		StartDate:           t.StartDate.Format("2006-01-02"),
		EndDate:             t.EndDate.Format("2006-01-02"),
		PercentDone:         t.PercentDone,
		Status:              string(t.Status),
		DelayReason:         t.DelayReason,
		AssignedUserToken:   t.AssignedUserToken,
		AssignedDisplayName: t.AssignedDisplayName,
		WasShifted:          t.WasShifted,
		LastShiftDate:       t.LastShiftDate,
		UpdatedAt:           t.UpdatedAt,
	}
	if authz.CanViewTaskBudget(identity, t) {
		p.Budget = t.Budget
	}
	return p
}

// commentPayload はレスポンスに含めるコメント情報。
// 追加と一覧で同じ形を使う。
type commentPayload struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// newCommentPayload はコメントをレスポンス形式に変換する。
func newCommentPayload(c *model.Comment) commentPayload {
	return commentPayload{
		ID:         c.ID,
		TaskID:     c.TaskID,
		AuthorName: c.AuthorName,
		Body:       c.Body,
		CreatedAt:  c.CreatedAt,
	}
}

// ListTasks はプロジェクトのタスク一覧を開始日昇順で返す。
// GET /api/projects/{projectID}/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewInvalidSessionError())
		return
	}

	projectID := chi.URLParam(r, "projectID")
	tasks, err := h.service.ListByProject(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}

	payloads := make([]taskPayload, 0, len(tasks))
	for _, t := range tasks {
		payloads = append(payloads, newTaskPayload(t, identity))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": payloads})
}

// GetTask はタスク詳細を返す。
// GET /api/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewInvalidSessionError())
		return
	}

	t, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if !authz.CanOpenTask(t, identity) {
		writeError(w, model.NewForbiddenError())
		return
	}

	writeJSON(w, http.StatusOK, newTaskPayload(t, identity))
}

// UpdateProgress はタスクの進捗を更新する。
// 管理役割、または当該タスクの担当者のみが実行できる。
// PUT /api/tasks/{id}/progress
func (h *TaskHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewInvalidSessionError())
		return
	}

	taskID := chi.URLParam(r, "id")
	t, err := h.service.Get(r.Context(), taskID)
	if err != nil {
		writeError(w, err)
		return
	}

	if !authz.CanManageTasks(identity) && t.AssignedUserToken != identity.UserToken {
		writeError(w, model.NewForbiddenError())
		return
	}

	var req struct {
		PercentDone int    `json:"percentDone"`
		Status      string `json:"status"`
		DelayReason string `json:"delayReason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewMissingFieldError("body"))
		return
	}

	status, ok := model.ParseTaskStatus(req.Status)
	if !ok {
		writeError(w, model.NewMissingFieldError("status"))
		return
	}

	updated, err := h.service.UpdateProgress(r.Context(), task.UpdateProgressInput{
		TaskID:      taskID,
		PercentDone: req.PercentDone,
		Status:      status,
		DelayReason: req.DelayReason,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskPayload(updated, identity))
}

// Assign はタスクの担当者を更新する。管理役割のみが実行できる。
// PUT /api/tasks/{id}/assignment
func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewInvalidSessionError())
		return
	}
	if !authz.CanManageTasks(identity) {
		writeError(w, model.NewForbiddenError())
		return
	}

	var req struct {
		UserToken   string `json:"userToken"`
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewMissingFieldError("body"))
		return
	}

	updated, err := h.service.Assign(r.Context(), chi.URLParam(r, "id"), req.UserToken, req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskPayload(updated, identity))
}

// DeleteTask はタスクを削除する。adminのみが実行できる。
// DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewInvalidSessionError())
		return
	}
	if !authz.CanDeleteTasks(identity) {
		writeError(w, model.NewForbiddenError())
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// AddComment はタスクにコメントを追加する。
// POST /api/tasks/{id}/comments
func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewInvalidSessionError())
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewMissingFieldError("body"))
		return
	}

	comment, err := h.service.AddComment(r.Context(), chi.URLParam(r, "id"),
		identity.UserToken, identity.DisplayName, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newCommentPayload(comment))
}

// ListComments はタスクのコメント一覧を返す。
// GET /api/tasks/{id}/comments
func (h *TaskHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.IdentityFromContext(r.Context()); err != nil {
		writeError(w, model.NewInvalidSessionError())
		return
	}

	comments, err := h.service.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	payloads := make([]commentPayload, 0, len(comments))
	for _, c := range comments {
		payloads = append(payloads, newCommentPayload(c))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"comments": payloads})
}
