package model

import "time"

// TaskStatus はタスクの進捗状態を表す。
type TaskStatus string

const (
	// StatusOnTrack は予定通りを表す。
	StatusOnTrack TaskStatus = "On Track"
	// StatusDelayed は遅延を表す。
	StatusDelayed TaskStatus = "Delayed"
	// StatusBlocked は作業不能（手待ち）を表す。
	StatusBlocked TaskStatus = "Blocked"
	// StatusDone は完了を表す。
	StatusDone TaskStatus = "Done"
)

// ParseTaskStatus は入力文字列をTaskStatusに変換する。未知の値はfalseを返す。
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case StatusOnTrack, StatusDelayed, StatusBlocked, StatusDone:
		return TaskStatus(s), true
	default:
		return "", false
	}
}

// Task は工程表上の1タスクを表す。
// 不変条件: EndDate >= StartDate。Status=Doneの場合はPercentDone=100
// （DBの制約ではなく書き込み時にサービス層で強制する）。
// 並び順は保存されず、StartDate昇順のソートで導出する。
type Task struct {
	ID                  string
	ProjectID           string
	Name                string
	OwnerRoles          []string // タスクを担当する役割ラベルの集合
	StartDate           time.Time
	EndDate             time.Time
	PercentDone         int // 0-100
	Status              TaskStatus
	DelayReason         string
	AssignedUserToken   string
	AssignedDisplayName string
	WasShifted          bool
	LastShiftDate       *time.Time
	Budget              *int64 // 予算（円）。未設定の場合はnil
	UpdatedAt           time.Time
}

// Project は1つの建設プロジェクトを表す。
// ProjectStartDateとProjectCurrentDateが工程シフト計算の基準点。
type Project struct {
	ID                    string
	Name                  string
	Description           string
	CustomContractors     []string // 追加の職種ラベル
	ProjectStartDate      time.Time
	ProjectCurrentDate    time.Time
	ProjectDurationMonths int // 9〜12
	Archived              bool
}

// Comment はタスクに付くコメントを表す。
// 工程シフト・リベースライン時にはシステムが自動コメントを追記する。
type Comment struct {
	ID          string
	TaskID      string
	AuthorToken string // システム自動コメントの場合は空
	AuthorName  string
	Body        string
	CreatedAt   time.Time
}

// SystemCommentAuthor はシステム自動コメントの表示名。
const SystemCommentAuthor = "System"

// Baseline はリベースライン適用前の工程スナップショットを表す。
type Baseline struct {
	ID        string
	ProjectID string
	Note      string
	CreatedAt time.Time
}

// BaselineTask はスナップショット時点のタスク日程を表す。
type BaselineTask struct {
	BaselineID string
	TaskID     string
	StartDate  time.Time
	EndDate    time.Time
	Status     TaskStatus
}

// ShiftUnit は工程シフトの単位を表す。
type ShiftUnit string

const (
	// UnitDays は日単位のシフトを表す。
	UnitDays ShiftUnit = "Days"
	// UnitWeeks は週単位のシフトを表す。
	UnitWeeks ShiftUnit = "Weeks"
)

// ParseShiftUnit は入力文字列をShiftUnitに変換する。未知の値はfalseを返す。
func ParseShiftUnit(s string) (ShiftUnit, bool) {
	switch ShiftUnit(s) {
	case UnitDays, UnitWeeks:
		return ShiftUnit(s), true
	default:
		return "", false
	}
}

// DaysPerUnit は単位あたりの日数を返す（Days=1, Weeks=7）。
func (u ShiftUnit) DaysPerUnit() int {
	if u == UnitWeeks {
		return 7
	}
	return 1
}
