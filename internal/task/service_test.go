package task

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/koutei/internal/model"
	"github.com/hitoshi/koutei/internal/security"
)

// --- モック ---

type mockTaskRepo struct {
	tasks map[string]*model.Task

	progressTaskID string
	progressValues struct {
		percent     int
		status      model.TaskStatus
		delayReason string
	}
	assigned [2]string
	deleted  string
}

func newMockTaskRepo(tasks ...*model.Task) *mockTaskRepo {
	m := &mockTaskRepo{tasks: map[string]*model.Task{}}
	for _, t := range tasks {
		m.tasks[t.ID] = t
	}
	return m
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	return m.tasks[id], nil
}
func (m *mockTaskRepo) ListByProject(ctx context.Context, projectID string) ([]*model.Task, error) {
	out := []*model.Task{}
	for _, t := range m.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}
func (m *mockTaskRepo) UpdateDates(ctx context.Context, taskID string, startDate, endDate time.Time, shiftedAt time.Time) error {
	return nil
}
func (m *mockTaskRepo) RebaseDates(ctx context.Context, taskID string, startDate, endDate time.Time) error {
	return nil
}
func (m *mockTaskRepo) UpdateProgress(ctx context.Context, taskID string, percent int, status model.TaskStatus, delayReason string) error {
	m.progressTaskID = taskID
	m.progressValues.percent = percent
	m.progressValues.status = status
	m.progressValues.delayReason = delayReason
	return nil
}
func (m *mockTaskRepo) ResetStatus(ctx context.Context, taskID string, status model.TaskStatus, clearDelayReason bool) error {
	return nil
}
func (m *mockTaskRepo) UpdateAssignment(ctx context.Context, taskID, userToken, displayName string) error {
	m.assigned = [2]string{userToken, displayName}
	return nil
}
func (m *mockTaskRepo) Delete(ctx context.Context, id string) error {
	m.deleted = id
	return nil
}

type mockCommentRepo struct {
	comments []*model.Comment
	err      error
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	if m.err != nil {
		return m.err
	}
	m.comments = append(m.comments, comment)
	return nil
}
func (m *mockCommentRepo) ListByTask(ctx context.Context, taskID string) ([]*model.Comment, error) {
	return m.comments, nil
}

func newTestService(taskRepo *mockTaskRepo, commentRepo *mockCommentRepo) *Service {
	svc := NewService(taskRepo, commentRepo, security.NewTextSanitizer())
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != code {
		t.Errorf("expected code %s, got %s", code, apiErr.Code)
	}
}

// --- テスト ---

// TestService_Get は取得と不在時のエラーを確認する。
func TestService_Get(t *testing.T) {
	taskRepo := newMockTaskRepo(&model.Task{ID: "t1", Name: "基礎工事"})
	svc := newTestService(taskRepo, &mockCommentRepo{})

	got, err := svc.Get(context.Background(), "t1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "基礎工事" {
		t.Errorf("unexpected task: %+v", got)
	}

	_, err = svc.Get(context.Background(), "no-such-task")
	assertAPIErrorCode(t, err, model.ErrCodeTaskNotFound)
}

// TestService_UpdateProgress は進捗更新とDone⇔100%の整合を確認する。
func TestService_UpdateProgress(t *testing.T) {
	tests := []struct {
		name        string
		input       UpdateProgressInput
		wantPercent int
		wantStatus  model.TaskStatus
		wantReason  string
	}{
		{
			name:        "Done指定で進捗率が100に揃う",
			input:       UpdateProgressInput{TaskID: "t1", PercentDone: 60, Status: model.StatusDone},
			wantPercent: 100,
			wantStatus:  model.StatusDone,
		},
		{
			name:        "進捗率100指定で状態がDoneに揃う",
			input:       UpdateProgressInput{TaskID: "t1", PercentDone: 100, Status: model.StatusOnTrack},
			wantPercent: 100,
			wantStatus:  model.StatusDone,
		},
		{
			name:        "Delayedは遅延理由を保持する",
			input:       UpdateProgressInput{TaskID: "t1", PercentDone: 40, Status: model.StatusDelayed, DelayReason: "雨天続き"},
			wantPercent: 40,
			wantStatus:  model.StatusDelayed,
			wantReason:  "雨天続き",
		},
		{
			name:        "On Trackに戻すと遅延理由が消える",
			input:       UpdateProgressInput{TaskID: "t1", PercentDone: 50, Status: model.StatusOnTrack, DelayReason: "雨天続き"},
			wantPercent: 50,
			wantStatus:  model.StatusOnTrack,
			wantReason:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			taskRepo := newMockTaskRepo(&model.Task{ID: "t1"})
			svc := newTestService(taskRepo, &mockCommentRepo{})

			got, err := svc.UpdateProgress(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.PercentDone != tt.wantPercent || got.Status != tt.wantStatus || got.DelayReason != tt.wantReason {
				t.Errorf("got %d/%s/%q, want %d/%s/%q",
					got.PercentDone, got.Status, got.DelayReason,
					tt.wantPercent, tt.wantStatus, tt.wantReason)
			}
			if taskRepo.progressValues.percent != tt.wantPercent {
				t.Errorf("repo received percent %d, want %d", taskRepo.progressValues.percent, tt.wantPercent)
			}
		})
	}
}

// TestService_UpdateProgress_Validation は進捗率の範囲検証を確認する。
func TestService_UpdateProgress_Validation(t *testing.T) {
	svc := newTestService(newMockTaskRepo(&model.Task{ID: "t1"}), &mockCommentRepo{})

	for _, percent := range []int{-1, 101} {
		_, err := svc.UpdateProgress(context.Background(), UpdateProgressInput{
			TaskID: "t1", PercentDone: percent, Status: model.StatusOnTrack,
		})
		assertAPIErrorCode(t, err, model.ErrCodeInvalidProgress)
	}
}

// TestService_Assign は担当者の設定と解除を確認する。
func TestService_Assign(t *testing.T) {
	taskRepo := newMockTaskRepo(&model.Task{ID: "t1"})
	svc := newTestService(taskRepo, &mockCommentRepo{})

	got, err := svc.Assign(context.Background(), "t1", "user-1", "田中 太郎")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AssignedUserToken != "user-1" || got.AssignedDisplayName != "田中 太郎" {
		t.Errorf("unexpected assignment: %+v", got)
	}

	// 空トークンで割り当て解除。表示名も同時に消える
	got, err = svc.Assign(context.Background(), "t1", "", "残留する名前")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AssignedUserToken != "" || got.AssignedDisplayName != "" {
		t.Errorf("unassign should clear both fields: %+v", got)
	}
}

// TestService_Delete は削除と不在時のエラーを確認する。
func TestService_Delete(t *testing.T) {
	taskRepo := newMockTaskRepo(&model.Task{ID: "t1"})
	svc := newTestService(taskRepo, &mockCommentRepo{})

	if err := svc.Delete(context.Background(), "t1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taskRepo.deleted != "t1" {
		t.Errorf("expected t1 deleted, got %q", taskRepo.deleted)
	}

	err := svc.Delete(context.Background(), "no-such-task")
	assertAPIErrorCode(t, err, model.ErrCodeTaskNotFound)
}

// TestService_AddComment はコメント追加とサニタイズを確認する。
func TestService_AddComment(t *testing.T) {
	taskRepo := newMockTaskRepo(&model.Task{ID: "t1"})
	commentRepo := &mockCommentRepo{}
	svc := newTestService(taskRepo, commentRepo)

	comment, err := svc.AddComment(context.Background(), "t1", "user-1", "田中 太郎",
		`資材搬入は<script>alert("x")</script>明日の予定`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// scriptタグと中身はサニタイズで除去される
	for _, absent := range []string{"<script", "alert"} {
		if strings.Contains(comment.Body, absent) {
			t.Errorf("body should not contain %q, got %q", absent, comment.Body)
		}
	}
	if !strings.Contains(comment.Body, "資材搬入は") {
		t.Errorf("plain text should survive sanitization, got %q", comment.Body)
	}
	if comment.AuthorName != "田中 太郎" {
		t.Errorf("unexpected author: %q", comment.AuthorName)
	}
	if len(commentRepo.comments) != 1 {
		t.Error("comment should be persisted")
	}
}

// TestService_AddComment_Validation は本文必須の検証を確認する。
func TestService_AddComment_Validation(t *testing.T) {
	svc := newTestService(newMockTaskRepo(&model.Task{ID: "t1"}), &mockCommentRepo{})

	_, err := svc.AddComment(context.Background(), "t1", "user-1", "田中 太郎", "")
	assertAPIErrorCode(t, err, model.ErrCodeMissingField)

	_, err = svc.AddComment(context.Background(), "no-such-task", "user-1", "田中 太郎", "本文")
	assertAPIErrorCode(t, err, model.ErrCodeTaskNotFound)
}
