// Package read реализует HTTP-обработчик получения осмотра по ID
// вместе с прикреплёнными фотографиями.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/car-dano/inspection-backend/internal/http/middlewarectx"
	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

// Handler обрабатывает запросы на получение осмотра.
type Handler struct {
	log     *slog.Logger
	service Service
	photos  PhotoService
}

// Service описывает интерфейс бизнес-логики чтения осмотра.
type Service interface {
	Read(ctx context.Context, id string) (*models.Inspection, error)
}

// PhotoService описывает интерфейс выборки фотографий осмотра.
type PhotoService interface {
	List(ctx context.Context, inspectionID string) ([]*models.Photo, error)
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, service Service, photos PhotoService) *Handler {
	return &Handler{log: log, service: service, photos: photos}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.inspection.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	ins, err := h.service.Read(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("inspection not found"))
			return
		}
		log.Error("failed to read inspection", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read inspection"))
		return
	}

	// инспектор видит только свои осмотры
	if role, _ := r.Context().Value(middlewarectx.RoleKey).(string); role == models.RoleInspector {
		uid, _ := r.Context().Value(middlewarectx.UIDKey).(string)
		if ins.InspectorUID != uid {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("inspection not found"))
			return
		}
	}

	photos, err := h.photos.List(r.Context(), id)
	if err != nil {
		log.Error("failed to list inspection photos", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read inspection"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"inspection": ins,
		"photos":     photos,
	}))
}
