// Package schedule は工程シフトとリベースラインの計算・適用を提供する。
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/koutei/internal/model"
	"github.com/hitoshi/koutei/internal/repository"
)

// MetricsRecorder は工程エンジンが発行するメトリクスのインターフェース。
// nilの場合は記録をスキップする。
type MetricsRecorder interface {
	RecordTasksShifted(count int)
	RecordRebaseline(deltaDays int)
}

// Engine は工程シフトとリベースラインを実行する。
//
// いずれの操作もタスクごとの逐次更新で、バッチ全体を1トランザクションに
// 包まない。途中で永続化に失敗した場合はループを中断して最初のエラーを
// 返し、適用済みのシフトはロールバックしない。シフト済みマーカーの更新は
// 冪等なので、呼び出し側は同じ操作を再実行して回復できる。
type Engine struct {
	taskRepo     repository.TaskRepository
	commentRepo  repository.CommentRepository
	projectRepo  repository.ProjectRepository
	baselineRepo repository.BaselineRepository
	metrics      MetricsRecorder

	now func() time.Time
}

// NewEngine はEngineを生成する。
func NewEngine(
	taskRepo repository.TaskRepository,
	commentRepo repository.CommentRepository,
	projectRepo repository.ProjectRepository,
	baselineRepo repository.BaselineRepository,
	metrics MetricsRecorder,
) *Engine {
	return &Engine{
		taskRepo:     taskRepo,
		commentRepo:  commentRepo,
		projectRepo:  projectRepo,
		baselineRepo: baselineRepo,
		metrics:      metrics,
		now:          time.Now,
	}
}

// ShiftInput は工程シフトの入力。
type ShiftInput struct {
	AnchorTaskID string
	Amount       int // 符号付き。負値で前倒し
	Unit         model.ShiftUnit
	SkipDone     bool
}

// ShiftResult は工程シフトの結果。
type ShiftResult struct {
	ShiftedCount int
	DeltaDays    int
}

// Shift はアンカータスクの終了日以降に開始する全タスクを
// amount * unit 日だけ後ろへずらす。
//
//   - アンカータスク自身は対象外。
//   - SkipDoneの場合、完了済みタスクは対象条件を満たしても変更しない。
//   - 各対象タスクにはwas_shiftedとlast_shift_dateを記録し、
//     自動コメントを1件ずつ追記する。
//   - 対象が0件の場合はShiftedCount=0で正常終了する（エラーにしない）。
func (e *Engine) Shift(ctx context.Context, input ShiftInput) (*ShiftResult, error) {
	anchor, err := e.taskRepo.FindByID(ctx, input.AnchorTaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load anchor task: %w", err)
	}
	if anchor == nil {
		return nil, model.NewTaskNotFoundError(input.AnchorTaskID)
	}

	deltaDays := input.Amount * input.Unit.DaysPerUnit()

	tasks, err := e.taskRepo.ListByProject(ctx, anchor.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project tasks: %w", err)
	}

	now := e.now()
	today := now.Format("2006-01-02")
	commentBody := fmt.Sprintf("Auto-shifted by %d %s due to delay of %q on %s.",
		input.Amount, input.Unit, anchor.Name, today)

	shifted := 0
	for _, task := range tasks {
		if task.ID == anchor.ID {
			continue
		}
		// 対象条件: アンカーの終了日以降に開始するタスク
		if task.StartDate.Before(anchor.EndDate) {
			continue
		}
		if input.SkipDone && task.Status == model.StatusDone {
			continue
		}

		newStart := task.StartDate.AddDate(0, 0, deltaDays)
		newEnd := task.EndDate.AddDate(0, 0, deltaDays)

		if err := e.taskRepo.UpdateDates(ctx, task.ID, newStart, newEnd, now); err != nil {
			return nil, fmt.Errorf("failed to shift task %s: %w", task.ID, err)
		}
		if err := e.appendSystemComment(ctx, task.ID, commentBody); err != nil {
			return nil, err
		}
		shifted++
	}

	if e.metrics != nil && shifted > 0 {
		e.metrics.RecordTasksShifted(shifted)
	}
	slog.Info("schedule shift applied",
		slog.String("anchor_task_id", anchor.ID),
		slog.Int("delta_days", deltaDays),
		slog.Int("shifted_count", shifted),
	)

	return &ShiftResult{ShiftedCount: shifted, DeltaDays: deltaDays}, nil
}

// RebaselineInput はリベースラインの入力。
type RebaselineInput struct {
	ProjectID         string
	NewBaselineStart  time.Time
	ResetStatuses     bool
	ClearDelayReasons bool
}

// RebaselineResult はリベースラインの結果。
type RebaselineResult struct {
	ShiftedCount int
	DeltaDays    int
}

// Rebaseline はプロジェクト全体の工程を新しい最小開始日に再アンカーする。
//
//   - delta = 新ベースライン開始日 − 全タスクの最小start_date（日数）。
//   - delta == 0 の場合は何も変更しない。
//   - 適用前の日程はbaselines/baseline_tasksにスナップショットとして残す。
//   - ResetStatusesの場合、未完了タスクの状態をOn Trackに戻す。
//     さらにClearDelayReasonsの場合は、状態を戻したタスクに限り
//     遅延理由も消去する（完了済みタスクには一切触れない）。
//   - project_current_dateも同じdeltaだけずらし、「今日」の基準を
//     新ベースラインに対して一貫させる。
//   - 代表タスク1件に自動コメントを追記する。
func (e *Engine) Rebaseline(ctx context.Context, input RebaselineInput) (*RebaselineResult, error) {
	tasks, err := e.taskRepo.ListByProject(ctx, input.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project tasks: %w", err)
	}
	if len(tasks) == 0 {
		return &RebaselineResult{}, nil
	}

	oldMin := tasks[0].StartDate
	for _, task := range tasks[1:] {
		if task.StartDate.Before(oldMin) {
			oldMin = task.StartDate
		}
	}

	delta := daysBetween(oldMin, input.NewBaselineStart)
	if delta == 0 {
		return &RebaselineResult{}, nil
	}

	now := e.now()

	// 適用前の工程をスナップショットとして保存する
	baseline := &model.Baseline{
		ID:        uuid.New().String(),
		ProjectID: input.ProjectID,
		Note: fmt.Sprintf("Before rebaseline from %s to %s",
			oldMin.Format("2006-01-02"), input.NewBaselineStart.Format("2006-01-02")),
		CreatedAt: now,
	}
	baselineTasks := make([]*model.BaselineTask, 0, len(tasks))
	for _, task := range tasks {
		baselineTasks = append(baselineTasks, &model.BaselineTask{
			BaselineID: baseline.ID,
			TaskID:     task.ID,
			StartDate:  task.StartDate,
			EndDate:    task.EndDate,
			Status:     task.Status,
		})
	}
	if err := e.baselineRepo.CreateSnapshot(ctx, baseline, baselineTasks); err != nil {
		return nil, fmt.Errorf("failed to snapshot baseline: %w", err)
	}

	for _, task := range tasks {
		newStart := task.StartDate.AddDate(0, 0, delta)
		newEnd := task.EndDate.AddDate(0, 0, delta)
		if err := e.taskRepo.RebaseDates(ctx, task.ID, newStart, newEnd); err != nil {
			return nil, fmt.Errorf("failed to rebase task %s: %w", task.ID, err)
		}

		if input.ResetStatuses && task.Status != model.StatusDone {
			if err := e.taskRepo.ResetStatus(ctx, task.ID, model.StatusOnTrack, input.ClearDelayReasons); err != nil {
				return nil, fmt.Errorf("failed to reset status of task %s: %w", task.ID, err)
			}
		}
	}

	if err := e.projectRepo.ShiftCurrentDate(ctx, input.ProjectID, delta); err != nil {
		return nil, fmt.Errorf("failed to shift project current date: %w", err)
	}

	commentBody := fmt.Sprintf("Rebaseline applied: shifted %d days from %s to %s.",
		delta, oldMin.Format("2006-01-02"), input.NewBaselineStart.Format("2006-01-02"))
	if err := e.appendSystemComment(ctx, tasks[0].ID, commentBody); err != nil {
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.RecordRebaseline(delta)
	}
	slog.Info("rebaseline applied",
		slog.String("project_id", input.ProjectID),
		slog.Int("delta_days", delta),
		slog.Int("task_count", len(tasks)),
	)

	return &RebaselineResult{ShiftedCount: len(tasks), DeltaDays: delta}, nil
}

// appendSystemComment はシステム名義の自動コメントを追記する。
func (e *Engine) appendSystemComment(ctx context.Context, taskID, body string) error {
	comment := &model.Comment{
		ID:         uuid.New().String(),
		TaskID:     taskID,
		AuthorName: model.SystemCommentAuthor,
		Body:       body,
		CreatedAt:  e.now(),
	}
	if err := e.commentRepo.Create(ctx, comment); err != nil {
		return fmt.Errorf("failed to append system comment: %w", err)
	}
	return nil
}

// daysBetween はaからbまでの日数を返す。時刻成分とタイムゾーンは無視する。
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
