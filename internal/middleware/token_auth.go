// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/recipebox/internal/model"
)

// AuthScheme はWWW-Authenticateヘッダーで提示する認証スキーム。
const AuthScheme = "Token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// TokenResolver はトークンキーから呼び出し元ユーザーを特定するインターフェース。
// auth.Serviceが実装する。
type TokenResolver interface {
	ResolveToken(ctx context.Context, key string) (*model.User, error)
}

// NewTokenAuthMiddleware はAuthorizationヘッダーのトークンを検証するミドルウェアを返す。
// 認証済みユーザーIDをリクエストコンテキストに注入する。
// トークンがない、または無効な場合は401 UnauthorizedとWWW-Authenticateヘッダーを返す。
func NewTokenAuthMiddleware(resolver TokenResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := TokenFromHeader(r.Header.Get("Authorization"))
			if !ok {
				WriteUnauthorized(w)
				return
			}

			user, err := resolver.ResolveToken(r.Context(), key)
			if err != nil {
				var apiErr *model.APIError
				if errors.As(err, &apiErr) && apiErr.Category == model.CategoryAuth {
					WriteUnauthorized(w)
					return
				}
				slog.Error("failed to resolve token",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}

			recordUserID(r.Context(), user.ID)
			ctx := context.WithValue(r.Context(), userIDContextKey, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromHeader はAuthorizationヘッダーの値からトークンキーを取り出す。
// "Token <key>" と "Bearer <key>" を受け付け、スキーム名の大文字小文字は区別しない。
// ヘッダーが空の場合は空文字列とtrueを返し、形式が不正な場合はfalseを返す。
func TokenFromHeader(header string) (string, bool) {
	if header == "" {
		return "", true
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", false
	}
	scheme := strings.ToLower(parts[0])
	if scheme != "token" && scheme != "bearer" {
		return "", true
	}
	return parts[1], true
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// トークン認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
