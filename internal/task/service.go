// Package task はタスク管理のドメインロジックを提供する。
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/koutei/internal/model"
	"github.com/hitoshi/koutei/internal/repository"
	"github.com/hitoshi/koutei/internal/security"
)

// Service はタスクの読み取りと書き込み不変条件の強制を担う。
//
// 書き込み時の不変条件:
//   - end_date >= start_date
//   - status == Done ⇔ percent_done == 100（データベース制約ではなく
//     ここで強制する）
type Service struct {
	taskRepo    repository.TaskRepository
	commentRepo repository.CommentRepository
	sanitizer   security.TextSanitizerService

	now func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	taskRepo repository.TaskRepository,
	commentRepo repository.CommentRepository,
	sanitizer security.TextSanitizerService,
) *Service {
	return &Service{
		taskRepo:    taskRepo,
		commentRepo: commentRepo,
		sanitizer:   sanitizer,
		now:         time.Now,
	}
}

// Get は指定IDのタスクを取得する。
func (s *Service) Get(ctx context.Context, taskID string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	if task == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return task, nil
}

// ListByProject はプロジェクトの全タスクを開始日昇順で返す。
func (s *Service) ListByProject(ctx context.Context, projectID string) ([]*model.Task, error) {
	tasks, err := s.taskRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateProgressInput は進捗更新の入力。
type UpdateProgressInput struct {
	TaskID      string
	PercentDone int
	Status      model.TaskStatus
	DelayReason string
}

// UpdateProgress はタスクの進捗率・状態・遅延理由を更新する。
// Done指定時は進捗率を100に、進捗率100指定時は状態をDoneに揃える。
func (s *Service) UpdateProgress(ctx context.Context, input UpdateProgressInput) (*model.Task, error) {
	if input.PercentDone < 0 || input.PercentDone > 100 {
		return nil, model.NewInvalidProgressError(input.PercentDone)
	}

	task, err := s.Get(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}

	percent := input.PercentDone
	status := input.Status

	// Done ⇔ 100% の整合を書き込み時に強制する
	if status == model.StatusDone {
		percent = 100
	} else if percent == 100 {
		status = model.StatusDone
	}

	delayReason := input.DelayReason
	if status != model.StatusDelayed && status != model.StatusBlocked {
		delayReason = ""
	}

	if err := s.taskRepo.UpdateProgress(ctx, task.ID, percent, status, delayReason); err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	task.PercentDone = percent
	task.Status = status
	task.DelayReason = delayReason
	return task, nil
}

// Assign はタスクの担当者を設定する。userTokenが空の場合は割り当てを解除する。
func (s *Service) Assign(ctx context.Context, taskID, userToken, displayName string) (*model.Task, error) {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if userToken == "" {
		displayName = ""
	}

	if err := s.taskRepo.UpdateAssignment(ctx, task.ID, userToken, displayName); err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}

	task.AssignedUserToken = userToken
	task.AssignedDisplayName = displayName
	return task, nil
}

// Delete は指定IDのタスクを削除する。
func (s *Service) Delete(ctx context.Context, taskID string) error {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// AddComment はタスクにコメントを追加する。
// 本文と著者名はサニタイズしてから保存する。
func (s *Service) AddComment(ctx context.Context, taskID, authorToken, authorName, body string) (*model.Comment, error) {
	if body == "" {
		return nil, model.NewMissingFieldError("body")
	}

	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ID:          uuid.New().String(),
		TaskID:      task.ID,
		AuthorToken: authorToken,
		AuthorName:  s.sanitizer.Sanitize(authorName),
		Body:        s.sanitizer.Sanitize(body),
		CreatedAt:   s.now(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// ListComments はタスクのコメント一覧を返す。
func (s *Service) ListComments(ctx context.Context, taskID string) ([]*model.Comment, error) {
	comments, err := s.commentRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}
