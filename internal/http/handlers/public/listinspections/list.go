// Package listinspections реализует публичный HTTP-обработчик списка
// архивированных осмотров. Авторизация не требуется, частота запросов
// ограничена middleware.
package listinspections

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
)

// Handler обрабатывает публичные запросы на список осмотров.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс выборки архивированных осмотров.
type Service interface {
	ListArchivedInspections(ctx context.Context, plate string, limit, offset int) ([]*models.PublicInspection, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.public.listinspections"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	plate := r.URL.Query().Get("plate")

	inspections, err := h.service.ListArchivedInspections(r.Context(), plate, limit, offset)
	if err != nil {
		log.Error("failed to list archived inspections", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list inspections"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"inspections": inspections,
		"count":       len(inspections),
	}))
}
