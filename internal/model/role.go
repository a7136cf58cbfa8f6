package model

import "strings"

// Role はユーザーの役割を表す閉じた列挙型。
// 文字列比較の散在を避けるため、正規化はParseRoleに一本化する。
type Role string

const (
	// RoleContractor は協力業者（職人）を表す。
	RoleContractor Role = "contractor"
	// RoleAdmin はシステム管理者を表す。
	RoleAdmin Role = "admin"
	// RoleDeveloper はデベロッパー（施主側担当者）を表す。
	RoleDeveloper Role = "developer"
	// RoleProjectManager は現場監督を表す。
	RoleProjectManager Role = "project_manager"
)

// DefaultContractorRole はアクセスコード経由で職種未指定の場合に付与する職種ラベル。
const DefaultContractorRole = "General Contractor"

// ParseRole は入力文字列をRoleに正規化する。
// 小文字化し、空白をアンダースコアに置換する（"Project Manager" → project_manager）。
// 未知の値の場合はfalseを返す。
func ParseRole(s string) (Role, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	switch Role(normalized) {
	case RoleContractor, RoleAdmin, RoleDeveloper, RoleProjectManager:
		return Role(normalized), true
	default:
		return "", false
	}
}

// IsElevated は管理権限を持つ役割（admin, developer, project_manager）かを返す。
func (r Role) IsElevated() bool {
	switch r {
	case RoleAdmin, RoleDeveloper, RoleProjectManager:
		return true
	default:
		return false
	}
}

// ElevatedRoles はアクセスコードで付与可能な管理系役割の一覧。
var ElevatedRoles = []Role{RoleAdmin, RoleDeveloper, RoleProjectManager}
