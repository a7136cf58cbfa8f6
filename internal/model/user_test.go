package model

import (
	"testing"
	"time"
)

// TestNormalizeName は表示名の正規化を確認する。
// 小文字化・前後trim・連続空白の圧縮で同一アイデンティティに揃える。
func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"John Smith", "john smith"},
		{"  JOHN   Smith ", "john smith"},
		{"john\tsmith", "john smith"},
		{"田中　太郎", "田中 太郎"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// TestParseRole は役割文字列の解析を確認する。
func TestParseRole(t *testing.T) {
	tests := []struct {
		input  string
		want   Role
		wantOK bool
	}{
		{"contractor", RoleContractor, true},
		{"Admin", RoleAdmin, true},
		{"Project Manager", RoleProjectManager, true},
		{"project_manager", RoleProjectManager, true},
		{"DEVELOPER", RoleDeveloper, true},
		{"superuser", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.input)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

// TestRole_IsElevated は管理系役割の判定を確認する。
func TestRole_IsElevated(t *testing.T) {
	if RoleContractor.IsElevated() {
		t.Error("contractor must not be elevated")
	}
	for _, r := range []Role{RoleAdmin, RoleDeveloper, RoleProjectManager} {
		if !r.IsElevated() {
			t.Errorf("%s should be elevated", r)
		}
	}
}

// TestSession_Expired は有効期限判定の境界を確認する。
func TestSession_Expired(t *testing.T) {
	expiry := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: expiry}

	if s.Expired(expiry.Add(-time.Second)) {
		t.Error("session should be valid before expiry")
	}
	if !s.Expired(expiry.Add(time.Second)) {
		t.Error("session should be expired after expiry")
	}
}
