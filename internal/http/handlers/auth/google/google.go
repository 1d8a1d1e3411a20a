// Package google реализует HTTP-обработчики входа через Google OAuth:
// редирект на страницу согласия и обмен кода авторизации на JWT.
package google

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
)

const stateCookie = "oauth_state"

// Handler обрабатывает оба шага входа через Google.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики входа через Google.
type Service interface {
	GoogleAuthURL(state string) string
	GoogleLogin(ctx context.Context, code string) (string, *models.User, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// Redirect отправляет пользователя на страницу согласия Google.
// Состояние сохраняется в cookie и сверяется на обратном пути.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.google.redirect"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		log.Error("failed to generate oauth state", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to start google login"))
		return
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.service.GoogleAuthURL(state), http.StatusTemporaryRedirect)
}

// Callback godoc
// @Summary Завершение входа через Google
// @Description Обменивает код авторизации Google на JWT платформы.
// @Tags Auth
// @Produce json
// @Param code query string true "Код авторизации"
// @Param state query string true "Состояние, выданное на шаге редиректа"
// @Success 200 {object} map[string]any "Токен и профиль пользователя"
// @Failure 400 {object} response.ErrorResponse "Код или состояние отсутствуют"
// @Failure 401 {object} response.ErrorResponse "Состояние не совпало"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/google/callback [get]
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.google.callback"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		log.Warn("missing code or state")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing code or state"))
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value != state {
		log.Warn("oauth state mismatch")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("oauth state mismatch"))
		return
	}

	token, user, err := h.service.GoogleLogin(r.Context(), code)
	if err != nil {
		log.Error("google login failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to login with google"))
		return
	}

	log.Info("user logged in with google", slog.String("uid", user.UUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token": token,
		"user":  user,
	}))
}
