// Package archive реализует HTTP-обработчик отправки одобренного осмотра
// на архивацию в блокчейн.
package archive

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

// Handler обрабатывает запросы на архивацию осмотра.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики архивации.
type Service interface {
	Archive(ctx context.Context, id string) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Архивировать осмотр
// @Description Переводит одобренный осмотр в ARCHIVING и ставит задание минтинга в очередь.
// @Tags Inspections
// @Produce json
// @Param id path string true "ID осмотра"
// @Success 200 {object} map[string]any "Осмотр отправлен на архивацию"
// @Failure 404 {object} response.ErrorResponse "Осмотр не найден"
// @Failure 409 {object} response.ErrorResponse "Осмотр не одобрен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /inspections/{id}/archive [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.inspection.archive"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	if err := h.service.Archive(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("inspection not found"))
		case errors.Is(err, repository.ErrWrongStatus):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("inspection is not approved"))
		default:
			log.Error("failed to archive inspection", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to archive inspection"))
		}
		return
	}

	log.Info("inspection queued for archiving", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": models.StatusArchiving,
	}))
}
