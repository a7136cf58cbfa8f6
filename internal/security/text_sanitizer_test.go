package security

import (
	"strings"
	"testing"
)

// TestTextSanitizer_Sanitize はタグ除去の基本動作を確認する。
func TestTextSanitizer_Sanitize(t *testing.T) {
	s := NewTextSanitizer()

	cases := []struct {
		name        string
		input       string
		wantAbsent  []string
		wantPresent []string
	}{
		{
			name:        "プレーンテキストはそのまま",
			input:       "資材搬入は明日の予定です",
			wantPresent: []string{"資材搬入は明日の予定です"},
		},
		{
			name:       "scriptタグと中身が除去される",
			input:      `コメント<script>alert('xss')</script>本文`,
			wantAbsent: []string{"<script", "alert"},
		},
		{
			name:       "HTMLタグが除去される",
			input:      `<b>太字</b>と<a href="https://example.com">リンク</a>`,
			wantAbsent: []string{"<b>", "<a ", "href"},
			wantPresent: []string{
				"太字", "リンク",
			},
		},
		{
			name:       "onイベント属性が除去される",
			input:      `<img src="x" onerror="alert(1)">画像`,
			wantAbsent: []string{"onerror", "<img"},
		},
		{
			name:  "空文字列は空文字列",
			input: "",
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("output should not contain %q: %q", absent, got)
				}
			}
			for _, present := range tt.wantPresent {
				if !strings.Contains(got, present) {
					t.Errorf("output should contain %q: %q", present, got)
				}
			}
		})
	}
}

// TestTextSanitizer_Idempotent は同一入力から常に同一出力が得られることを確認する。
func TestTextSanitizer_Idempotent(t *testing.T) {
	s := NewTextSanitizer()
	input := `コメント<script>alert('xss')</script>本文`

	first := s.Sanitize(input)
	second := s.Sanitize(first)
	if first != second {
		t.Errorf("sanitization should be idempotent: %q != %q", first, second)
	}
}
