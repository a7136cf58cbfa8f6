// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はユーザー入力（コメント本文、表示名）をサニタイズし、
// Web UIでの表示時にXSS攻撃が成立しないようにする。
// bluemondayライブラリの許可リストベースのポリシーを使用する。
package security

import "github.com/microcosm-cc/bluemonday"

// TextSanitizerService はテキストサニタイズ機能のインターフェースを定義する。
// コメント保存前および表示名の登録時に使用される。
type TextSanitizerService interface {
	// Sanitize は入力からすべてのHTMLタグと危険な属性を除去したテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// コメントと表示名はプレーンテキストとして扱うため、
// タグを一切許可しないStrictPolicyを使用する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からすべてのHTMLタグと危険な属性を除去したテキストを返す。
func (s *textSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
