// Package middlewarectx содержит HTTP-middleware аутентификации,
// авторизации по ролям, проверки административного PIN и лимита запросов.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/jwt"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
)

// Key тип ключей контекста запроса.
type Key string

const (
	// UserKey имя пользователя из JWT.
	UserKey Key = "username"
	// RoleKey роль пользователя из JWT.
	RoleKey Key = "role"
	// UIDKey UID пользователя из JWT.
	UIDKey Key = "useruid"
)

// AuthMiddleware проверяет Bearer-токен и кладёт claims в контекст запроса.
func AuthMiddleware(log *slog.Logger, maker jwt.Maker) func(next http.Handler) http.Handler {
	const op = "middlewarectx.AuthMiddleware"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing bearer token")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing bearer token"))
				return
			}

			claims, err := maker.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Warn("invalid token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, claims.Username)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)
			ctx = context.WithValue(ctx, UIDKey, claims.UserUID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles пропускает запрос, только если роль из контекста входит в список.
func RequireRoles(log *slog.Logger, roles ...string) func(next http.Handler) http.Handler {
	const op = "middlewarectx.RequireRoles"
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := r.Context().Value(RoleKey).(string)
			if _, ok := allowed[role]; !ok {
				log.Warn("access denied",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("role", role),
				)
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
