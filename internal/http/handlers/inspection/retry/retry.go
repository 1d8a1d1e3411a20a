// Package retry реализует HTTP-обработчик повторной архивации осмотра
// после неудачного минтинга.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/car-dano/inspection-backend/internal/http/response"
	"github.com/car-dano/inspection-backend/internal/lib/sl"
	"github.com/car-dano/inspection-backend/internal/models"
	"github.com/car-dano/inspection-backend/internal/storage/repository"
)

// Handler обрабатывает запросы на повторную архивацию.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики повторной архивации.
type Service interface {
	Retry(ctx context.Context, id string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.inspection.retry"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	if err := h.service.Retry(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("inspection not found"))
		case errors.Is(err, repository.ErrWrongStatus):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("inspection archiving has not failed"))
		default:
			log.Error("failed to retry archiving", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to retry archiving"))
		}
		return
	}

	log.Info("inspection requeued for archiving", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": models.StatusArchiving,
	}))
}
