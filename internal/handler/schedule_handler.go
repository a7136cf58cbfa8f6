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
	"github.com/hitoshi/koutei/internal/schedule"
)

// ScheduleEngineInterface は工程ハンドラーが必要とするエンジンインターフェース。
type ScheduleEngineInterface interface {
	Shift(ctx context.Context, input schedule.ShiftInput) (*schedule.ShiftResult, error)
	Rebaseline(ctx context.Context, input schedule.RebaselineInput) (*schedule.RebaselineResult, error)
}

// ScheduleHandler は工程シフト/リベースラインのHTTPハンドラー。
// いずれの操作も管理役割（admin/project_manager）のみが実行できる。
type ScheduleHandler struct {
	engine ScheduleEngineInterface
}

// NewScheduleHandler はScheduleHandlerを生成する。
func NewScheduleHandler(engine ScheduleEngineInterface) *ScheduleHandler {
	return &ScheduleHandler{engine: engine}
}

// Shift はアンカータスク以降の工程を一括シフトする。
// POST /api/tasks/{id}/shift
func (h *ScheduleHandler) Shift(w http.ResponseWriter, r *http.Request) {
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
		Amount   int    `json:"amount"`
		Unit     string `json:"unit"`
		SkipDone bool   `json:"skipDone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewMissingFieldError("body"))
		return
	}

	unit, ok := model.ParseShiftUnit(req.Unit)
	if !ok {
		writeError(w, model.NewMissingFieldError("unit"))
		return
	}

	result, err := h.engine.Shift(r.Context(), schedule.ShiftInput{
		AnchorTaskID: chi.URLParam(r, "id"),
		Amount:       req.Amount,
		Unit:         unit,
		SkipDone:     req.SkipDone,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"shiftedCount": result.ShiftedCount,
		"deltaDays":    result.DeltaDays,
	})
}

// Rebaseline はプロジェクト全体の工程を新しい開始日に再アンカーする。
// POST /api/projects/{projectID}/rebaseline
func (h *ScheduleHandler) Rebaseline(w http.ResponseWriter, r *http.Request) {
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
		NewBaselineStart  string `json:"newBaselineStart"`
		ResetStatuses     bool   `json:"resetStatuses"`
		ClearDelayReasons bool   `json:"clearDelayReasons"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.NewMissingFieldError("body"))
		return
	}

	newStart, err := time.Parse("2006-01-02", req.NewBaselineStart)
	if err != nil {
		writeError(w, model.NewMissingFieldError("newBaselineStart"))
		return
	}

	result, err := h.engine.Rebaseline(r.Context(), schedule.RebaselineInput{
		ProjectID:         chi.URLParam(r, "projectID"),
		NewBaselineStart:  newStart,
		ResetStatuses:     req.ResetStatuses,
		ClearDelayReasons: req.ClearDelayReasons,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"shiftedCount": result.ShiftedCount,
		"deltaDays":    result.DeltaDays,
	})
}
