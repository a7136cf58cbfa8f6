// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/koutei/internal/middleware"
	"github.com/hitoshi/koutei/internal/model"
)

// statusForAPIError はエラーコードをHTTPステータスコードに対応付ける。
// validation系は400、認証失敗は401、権限不足は403、未検出は404、
// 登録競合は409、それ以外は500。
func statusForAPIError(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeMissingField, model.ErrCodeShortPassword, model.ErrCodeInvalidRole,
		model.ErrCodeLegacyAccount, model.ErrCodeInvalidDateRange, model.ErrCodeInvalidProgress:
		return http.StatusBadRequest
	case model.ErrCodeWrongPassword, model.ErrCodeInvalidCode, model.ErrCodeInvalidSession:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeTaskNotFound, model.ErrCodeProjectNotFound:
		return http.StatusNotFound
	case model.ErrCodeIdentityConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError はエラーを統一フォーマットで書き込む。
// APIError以外（ストレージ障害等）は詳細をログにのみ残し、500を返す。
func writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}
	slog.Error("request failed", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}
