package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/password"
)

// AdminPinHeader заголовок, в котором администратор передаёт PIN.
const AdminPinHeader = "X-Admin-Pin"

// RequirePin требует правильный административный PIN для необратимых операций.
// PIN хранится в конфигурации в виде bcrypt-хэша.
func RequirePin(log *slog.Logger, pinHash string) func(next http.Handler) http.Handler {
	const op = "middlewarectx.RequirePin"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pin := r.Header.Get(AdminPinHeader)
			if pin == "" || password.CompareHash(pinHash, pin) != nil {
				log.Warn("admin pin rejected",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("invalid admin pin"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
