// Package listinspectors реализует публичный HTTP-обработчик списка
// действующих инспекторов.
package listinspectors

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
)

// Handler обрабатывает публичные запросы на список инспекторов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс выборки действующих инспекторов.
type Service interface {
	ListActiveInspectors(ctx context.Context) ([]*models.User, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.public.listinspectors"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	inspectors, err := h.service.ListActiveInspectors(r.Context())
	if err != nil {
		log.Error("failed to list inspectors", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list inspectors"))
		return
	}

	// публичный профиль без почты и баланса
	type inspectorProfile struct {
		UID      string `json:"uid"`
		FullName string `json:"full_name"`
	}
	profiles := make([]inspectorProfile, 0, len(inspectors))
	for _, u := range inspectors {
		profiles = append(profiles, inspectorProfile{UID: u.UUID, FullName: u.FullName})
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"inspectors": profiles,
		"count":      len(profiles),
	}))
}
