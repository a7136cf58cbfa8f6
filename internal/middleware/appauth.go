package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/koutei/internal/model"
)

// NewAppAuthMiddleware は呼び出し元アプリケーションを識別するBearerクレデンシャルを
// 検証するミドルウェアを返す。エンドユーザーの認証ではなく、認証エンドポイントを
// 叩けるクライアントアプリケーションを制限するためのもの。
// 比較は一定時間で行う。
func NewAppAuthMiddleware(bearerToken string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			presented, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(bearerToken)) != 1 {
				slog.Warn("app credential rejected",
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
					Code:     "INVALID_APP_CREDENTIAL",
					Message:  "アプリケーションクレデンシャルが無効です。",
					Category: "auth",
					Action:   "クライアントアプリケーションの設定を確認してください。",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
