// Package authz はセッションとタスクに対する純粋な認可判定を提供する。
// すべての述語は副作用を持たず、ネットワークやデータベースに依存しない。
package authz

import "github.com/hitoshi/koutei/internal/model"

// IsElevated は管理権限を持つセッションかを返す。
// セッションがnilの場合は常にfalse。
func IsElevated(identity *model.SessionIdentity) bool {
	if identity == nil {
		return false
	}
	return identity.Role.IsElevated()
}

// CanManageTasks はタスクの日程変更・割り当てを行える役割かを返す。
// admin と project_manager のみ許可する（developerは閲覧専用の管理役割）。
func CanManageTasks(identity *model.SessionIdentity) bool {
	if identity == nil {
		return false
	}
	return identity.Role == model.RoleAdmin || identity.Role == model.RoleProjectManager
}

// CanDeleteTasks はタスクを削除できる役割かを返す。adminのみ許可する。
func CanDeleteTasks(identity *model.SessionIdentity) bool {
	if identity == nil {
		return false
	}
	return identity.Role == model.RoleAdmin
}

// CanViewProjectBudget はプロジェクト全体の予算を閲覧できるかを返す。
// 管理系役割のみ許可し、協力業者と未ログインには常にfalse。
func CanViewProjectBudget(identity *model.SessionIdentity) bool {
	return IsElevated(identity)
}

// CanViewTaskBudget はタスク個別の予算を閲覧できるかを返す。
// 管理系役割は常に許可。協力業者は自分に割り当てられたタスクのみ許可する。
func CanViewTaskBudget(identity *model.SessionIdentity, task *model.Task) bool {
	if identity == nil || task == nil {
		return false
	}
	if identity.Role.IsElevated() {
		return true
	}
	if identity.Role == model.RoleContractor {
		return task.AssignedUserToken != "" && task.AssignedUserToken == identity.UserToken
	}
	return false
}

// CanOpenTask はタスク詳細を開けるかを返す。
// 割り当てはタスクごとに異なるため、タスク単位で毎回評価すること。
// ログイン済みであれば詳細自体は閲覧できる（予算はCanViewTaskBudgetで別途判定）。
func CanOpenTask(task *model.Task, identity *model.SessionIdentity) bool {
	if identity == nil || task == nil {
		return false
	}
	return true
}
