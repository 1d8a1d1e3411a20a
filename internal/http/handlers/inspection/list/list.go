// Package list реализует HTTP-обработчик постраничного списка осмотров
// с фильтрами по статусу и инспектору.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/car-dano/inspection-backend/internal/http/middlewarectx"
	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
)

// Handler обрабатывает запросы на список осмотров.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка осмотров.
type Service interface {
	List(ctx context.Context, status, inspectorUID string, limit, offset int) ([]*models.Inspection, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.inspection.list"

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
	status := r.URL.Query().Get("status")
	inspectorUID := r.URL.Query().Get("inspector")

	// инспектор видит только свои осмотры
	if role, _ := r.Context().Value(middlewarectx.RoleKey).(string); role == models.RoleInspector {
		inspectorUID, _ = r.Context().Value(middlewarectx.UIDKey).(string)
	}

	inspections, err := h.service.List(r.Context(), status, inspectorUID, limit, offset)
	if err != nil {
		log.Error("failed to list inspections", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list inspections"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"inspections": inspections,
		"count":       len(inspections),
	}))
}
